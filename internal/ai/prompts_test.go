package ai

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `{"name": "test"}`,
			want:  `{"name": "test"}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"name\": \"test\"}\n```",
			want:  `{"name": "test"}`,
		},
		{
			name:  "plain code fence",
			input: "```\n{\"name\": \"test\"}\n```",
			want:  `{"name": "test"}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result:\n{\"name\": \"test\"}\nHope that helps.",
			want:  `{"name": "test"}`,
		},
		{
			name:  "whitespace",
			input: "  \n{\"name\": \"test\"}\n  ",
			want:  `{"name": "test"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePeopleNulls(t *testing.T) {
	fields, err := decodePeople(`{"name": "Alice Rao", "company": null, "designation": " CMO "}`)
	if err != nil {
		t.Fatalf("decodePeople error: %v", err)
	}
	if fields.Name != "Alice Rao" {
		t.Errorf("Name = %q", fields.Name)
	}
	if fields.Company != "" {
		t.Errorf("null company should decode to empty, got %q", fields.Company)
	}
	if fields.Designation != "CMO" {
		t.Errorf("Designation = %q, want trimmed", fields.Designation)
	}
}

func TestDecodeFundingRejectsNonJSON(t *testing.T) {
	if _, err := decodeFunding("no structured data here"); err == nil {
		t.Error("expected an error for non-JSON text")
	}
}

func TestPromptsIncludeShots(t *testing.T) {
	system, user := PeoplePrompt("X joins Y as Z")
	if !strings.Contains(system, "Abraham Thomas") {
		t.Error("people system prompt missing few-shot examples")
	}
	if !strings.Contains(user, "X joins Y as Z") {
		t.Error("people user prompt missing the headline")
	}

	system, user = FundingPrompt("A raises $1M", "summary text")
	if !strings.Contains(system, "Weekly funding roundup") {
		t.Error("funding system prompt missing the roundup example")
	}
	if !strings.Contains(user, "summary text") {
		t.Error("funding user prompt missing the summary")
	}
}
