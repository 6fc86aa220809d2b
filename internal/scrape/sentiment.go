// Package scrape fetches and parses people-spotting listing pages.
package scrape

import "strings"

// positiveKeywords mark a headline as a positive people movement
// (promotion, appointment, new role). Matching is case-insensitive
// substring containment.
var positiveKeywords = []string{
	// verbs
	"promoted", "promotes", "promotion",
	"elevated", "elevates", "elevation",
	"appointed", "appoints",
	"joins as", "joins",
	"named", "names",
	"elected",
	"takes charge", "assumes role",
	"expands", "expanded", "expands role", "expanded role",
	"given additional charge", "additional responsibility", "new role",
	"to head", "to lead",

	"hires", "hired", "onboards", "onboarded", "brings on", "ropes in",
	"returns to", "rejoins",

	// role phrasing that covers headlines without an explicit verb
	"as chief", "as ceo", "as cmo", "as cto", "as coo", "as md",
	"as cfo", "as cio", "as chro", "as president",
	"vice chair", "managing director",

	// board/advisory/ambassador signals
	"advisory board", "board of directors", "board of advisors", "advisory council",
	"brand ambassador", "ambassador",
}

// negativeKeywords veto a headline regardless of positive matches.
var negativeKeywords = []string{
	"resigns", "resignation", "steps down", "step down", "moves on", "quits",
	"exit", "exits", "leaves", "retire", "retires", "retirement",
	"fired", "sacked", "ousted", "removed", "demoted", "demotion",
}

// skipTitles are section labels that are never real headlines.
var skipTitles = map[string]struct{}{
	"people spotting": {},
	"people-spotting": {},
}

// IsPositiveMovement reports whether a headline describes a positive
// people movement. Any negative keyword vetoes; otherwise at least one
// positive keyword is required. There is no optimistic default.
func IsPositiveMovement(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if _, skip := skipTitles[t]; skip {
		return false
	}
	for _, bad := range negativeKeywords {
		if strings.Contains(t, bad) {
			return false
		}
	}
	for _, good := range positiveKeywords {
		if strings.Contains(t, good) {
			return true
		}
	}
	return false
}
