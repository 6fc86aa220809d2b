package scrape

import "testing"

func TestIsPositiveMovement(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"appointment", "Abraham Thomas appointed as Radio City CEO", true},
		{"promotion", "Goldee Patnaik promoted to Head of PR at OPPO India", true},
		{"joins", "Anand Sreenivasan joins Oneindia", true},
		{"role phrasing without verb", "Rahul Mehta as Chief Marketing Officer, Zomato", true},
		{"board signal", "Priya Nair inducted into advisory board of HUL", true},
		{"ambassador", "Virat Kohli named brand ambassador for Puma", true},
		{"negative vetoes positive", "CEO steps down after being named in probe", false},
		{"resignation", "Marketing head resigns from Swiggy", false},
		{"exit", "CFO exits Paytm after two years", false},
		{"no signal at all", "Advertising spends rise in Q2", false},
		{"section label", "People Spotting", false},
		{"empty", "", false},
		{"whitespace", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPositiveMovement(tt.title); got != tt.want {
				t.Errorf("IsPositiveMovement(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
