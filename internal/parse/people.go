// Package parse turns raw headlines into structured records: people
// movements (name, company, designation) and funding events (company,
// amount, round, investors). Both parsers are rule cascades with an
// optional LLM extractor; the LLM path is advisory and every failure
// degrades to rules.
package parse

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adityamenon/newsdesk/internal/ai"
)

// PeopleFields is the parsed form of a people-movement headline. Empty
// strings mean the field could not be determined.
type PeopleFields struct {
	Name                string
	Company             string
	Designation         string
	AmbassadorFeaturing string
}

// PeopleParser parses people-movement headlines with an ordered rule
// cascade, falling back to an LLM extractor only for fields the rules
// left empty.
type PeopleParser struct {
	extractor ai.Extractor // nil disables the LLM path
	logger    *slog.Logger
}

// NewPeopleParser creates a people parser. extractor may be nil.
func NewPeopleParser(extractor ai.Extractor, logger *slog.Logger) *PeopleParser {
	return &PeopleParser{extractor: extractor, logger: logger}
}

// Parse runs the rule cascade, then asks the LLM extractor only when
// any of {name, company, designation} is still empty. LLM values fill
// empty fields and never overwrite rule-derived ones.
func (p *PeopleParser) Parse(ctx context.Context, title string) PeopleFields {
	base := parsePeopleRules(title)

	if p.extractor != nil && (base.Name == "" || base.Company == "" || base.Designation == "") {
		got, err := p.extractor.ExtractPeople(ctx, title)
		if err != nil {
			p.logger.Debug("people llm extraction failed", "title", title, "error", err)
		} else {
			if base.Name == "" {
				base.Name = stripPossessive(cleanField(got.Name))
			}
			if base.Company == "" {
				base.Company = cleanField(got.Company)
			}
			if base.Designation == "" {
				base.Designation = cleanField(got.Designation)
			}
		}
	}

	base.Name = stripPossessive(base.Name)
	return base
}

// peopleRule is one headline-shape pattern. Rules are evaluated in
// order; the first match wins.
type peopleRule struct {
	name  string
	apply func(title string) (PeopleFields, bool)
}

var peopleRules = []peopleRule{
	{"ambassador-featuring", ruleAmbassador},
	{"expands-role", ruleExpandsRole},
	{"joins-as", ruleJoinsAs},
	{"appoints-names", ruleAppointsNames},
	{"promotes-elevates", rulePromotesElevates},
	{"promoted-to", rulePromotedTo},
	{"named-appointed", ruleNamedAppointed},
	{"name-at-company", ruleNameAtCompany},
	{"bare-name", ruleBareName},
}

// parsePeopleRules normalizes a headline and runs the cascade.
func parsePeopleRules(title string) PeopleFields {
	t := normTitle(title)
	if t == "" {
		return PeopleFields{}
	}
	for _, rule := range peopleRules {
		out, ok := rule.apply(t)
		if !ok {
			continue
		}
		out.Name = stripDescriptorPrefix(stripPossessive(cleanField(out.Name)))
		out.Company = cleanField(out.Company)
		out.Designation = cleanField(out.Designation)
		out.AmbassadorFeaturing = cleanField(out.AmbassadorFeaturing)
		return out
	}
	return PeopleFields{}
}

// normTitle collapses whitespace and folds smart punctuation.
func normTitle(s string) string {
	r := strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`, "–", "-", "—", "-")
	s = r.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// cleanField trims whitespace and stray leading/trailing punctuation.
func cleanField(s string) string {
	return strings.Trim(strings.TrimSpace(s), "—–-: ")
}

// stripPossessive removes a leading brand possessive, e.g.
// "Netflix's Akash Iyer" -> "Akash Iyer". Only applied when the
// possessive occurs early in the string so genuine names with
// apostrophes survive.
func stripPossessive(name string) string {
	if name == "" {
		return name
	}
	for _, tok := range []string{"’s ", "'s "} {
		pos := strings.Index(name, tok)
		if pos >= 0 && pos <= 20 {
			return strings.TrimSpace(name[pos+len(tok):])
		}
	}
	return name
}

// descriptorAnchors are role words; when one appears, the name is
// whatever follows the last anchor.
var descriptorAnchors = map[string]struct{}{
	"executive": {}, "veteran": {}, "alum": {}, "alumnus": {}, "alumna": {},
	"leader": {}, "head": {}, "manager": {}, "director": {}, "officer": {},
	"chief": {}, "founder": {}, "cofounder": {}, "co-founder": {}, "vp": {},
	"president": {}, "vice-president": {}, "vice": {},
}

// stripDescriptorPrefix removes leading qualifiers like "Former Sony
// executive" from a name, keeping the capitalized run that follows, or
// the text after a final " at " when present.
func stripDescriptorPrefix(s string) string {
	s = cleanField(s)
	if s == "" {
		return s
	}
	words := strings.Fields(s)
	lows := make([]string, len(words))
	for i, w := range words {
		lows[i] = strings.ToLower(w)
	}

	lastAnchor := -1
	for i, tok := range lows {
		norm := strings.ReplaceAll(tok, "-", "")
		if _, ok := descriptorAnchors[tok]; ok || norm == "cofounder" || norm == "vicepresident" {
			lastAnchor = i
		}
	}
	if lastAnchor != -1 && lastAnchor+1 < len(words) {
		tail := strings.Trim(strings.Join(words[lastAnchor+1:], " "), " ,")
		if tail != "" {
			return tail
		}
	}

	if len(lows) > 0 {
		first := lows[0]
		if first == "former" || first == "ex" || first == "ex-" || first == "longtime" || strings.HasPrefix(first, "ex-") {
			for i := 1; i < len(words)-1; i++ {
				if isCapitalized(words[i]) && isCapitalized(words[i+1]) {
					return strings.Trim(strings.Join(words[i:], " "), " ,")
				}
			}
		}
	}

	sl := strings.ToLower(s)
	if k := strings.LastIndex(sl, " at "); k >= 0 {
		if after := cleanField(s[k+4:]); after != "" {
			return after
		}
	}
	return s
}

func isCapitalized(w string) bool {
	return w != "" && w[0] >= 'A' && w[0] <= 'Z'
}

// Rule 1: ambassador/featuring headlines. "Puma signs Virat Kohli as
// brand ambassador" — the two tokens before " as " are the featured
// person.
func ruleAmbassador(title string) (PeopleFields, bool) {
	low := strings.ToLower(title)
	if !strings.Contains(low, "ambassador") && !strings.Contains(low, "featuring") {
		return PeopleFields{}, false
	}
	idx := strings.Index(low, " as ")
	if idx < 0 {
		return PeopleFields{}, false
	}
	tokens := strings.Fields(title[:idx])
	if len(tokens) < 2 {
		return PeopleFields{}, false
	}
	featured := strings.Trim(strings.Join(tokens[len(tokens)-2:], " "), " ,.")
	return PeopleFields{Name: featured, AmbassadorFeaturing: featured}, true
}

var (
	reExpandsPossessive = regexp.MustCompile(`(?i)^(.+?)\s+expands\s+(.+?)'s\s+role\s+to\s+(.+)$`)
	reExpandsRoleOf     = regexp.MustCompile(`(?i)^(.+?)\s+expands\s+the\s+role\s+of\s+(.+?)\s+to\s+(.+)$`)
)

// Rule 2: "<company> expands <name>'s role to <designation>" and the
// "expands the role of <name> to <designation>" variant.
func ruleExpandsRole(title string) (PeopleFields, bool) {
	if m := reExpandsPossessive.FindStringSubmatch(title); m != nil {
		return PeopleFields{Company: m[1], Name: m[2], Designation: m[3]}, true
	}
	if m := reExpandsRoleOf.FindStringSubmatch(title); m != nil {
		return PeopleFields{Company: m[1], Name: m[2], Designation: m[3]}, true
	}
	return PeopleFields{}, false
}

var reJoinsAs = regexp.MustCompile(`(?i)^(.+?)\s+joins\s+(.+?)\s+as\s+(.+)$`)

// Rule 3: "<name> joins <company> as <designation>".
func ruleJoinsAs(title string) (PeopleFields, bool) {
	m := reJoinsAs.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	return PeopleFields{Name: m[1], Company: m[2], Designation: m[3]}, true
}

var (
	reAppoints       = regexp.MustCompile(`(?i)^(.+?)\s+(?:appoints|names)\s+(.+)$`)
	reRoleSep        = regexp.MustCompile(`(?i)\s+(?:as|to|for)\s+`)
	rePromotes       = regexp.MustCompile(`(?i)^(.+?)\s+(?:promotes|elevates)\s+(.+)$`)
	rePromotedTo     = regexp.MustCompile(`(?i)^(.+?)\s+(?:promoted\s+to|elevated\s+to|elevated\s+as)\s+(.+)$`)
	reNamedAppointed = regexp.MustCompile(`(?i)^(.+?)\s+(?:named|appointed)\s+(?:as\s+)?(.+)$`)
	reNameAt         = regexp.MustCompile(`(?i)^(.+?)\s+at\s+(.+)$`)
)

// Rule 4: "<company> appoints|names <name> (as|to|for) <designation>".
// Without a separator the whole remainder is the name.
func ruleAppointsNames(title string) (PeopleFields, bool) {
	m := reAppoints.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	company, rest := m[1], m[2]
	if loc := reRoleSep.FindStringIndex(rest); loc != nil {
		return PeopleFields{Company: company, Name: rest[:loc[0]], Designation: rest[loc[1]:]}, true
	}
	return PeopleFields{Company: company, Name: rest}, true
}

// orgSuffixes end a trailing company-name run in promotion headlines
// like "... to Chief Growth Officer Lodestar Media".
var orgSuffixes = map[string]struct{}{
	"media": {}, "group": {}, "ltd": {}, "limited": {}, "inc": {}, "pvt": {},
	"india": {}, "network": {}, "networks": {}, "communications": {},
	"entertainment": {}, "advertising": {}, "digital": {}, "studios": {},
	"technologies": {}, "labs": {},
}

// splitAtOf splits on the first " at " or " of " (case-insensitive),
// returning left, right and whether a split happened.
func splitAtOf(s string) (string, string, bool) {
	low := strings.ToLower(s)
	for _, sep := range []string{" at ", " of "} {
		if k := strings.Index(low, sep); k >= 0 {
			return s[:k], s[k+len(sep):], true
		}
	}
	return s, "", false
}

// trailingCompany peels capitalized tokens off the end of a designation
// run when the run ends in an organization-suffix word.
func trailingCompany(rest string) (designation, company string) {
	tokens := strings.Fields(rest)
	if len(tokens) < 2 {
		return rest, ""
	}
	last := strings.ToLower(strings.Trim(tokens[len(tokens)-1], " ,."))
	if _, ok := orgSuffixes[last]; !ok {
		return rest, ""
	}
	start := len(tokens) - 1
	for start-1 > 0 && isCapitalized(tokens[start-1]) {
		prev := strings.ToLower(strings.Trim(tokens[start-1], " ,."))
		// Role words belong to the designation, not the company name.
		if _, role := descriptorAnchors[prev]; role {
			break
		}
		start--
	}
	return strings.Join(tokens[:start], " "), strings.Join(tokens[start:], " ")
}

// Rule 5: "<company> promotes|elevates <name> (to|as|for) <rest>".
func rulePromotesElevates(title string) (PeopleFields, bool) {
	m := rePromotes.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	out := PeopleFields{Company: m[1]}
	rest := m[2]

	loc := reRoleSep.FindStringIndex(rest)
	if loc == nil {
		out.Name = rest
		return out, true
	}
	out.Name = rest[:loc[0]]
	tail := rest[loc[1]:]

	if left, right, ok := splitAtOf(tail); ok {
		// "… to CMO at BigCo" — the explicit company wins over the prefix.
		out.Designation = left
		out.Company = right
		return out, true
	}

	designation, company := trailingCompany(tail)
	out.Designation = designation
	if company != "" {
		out.Company = company
	}
	return out, true
}

// Rule 6: "<name> promoted to|elevated to|elevated as <rest>".
func rulePromotedTo(title string) (PeopleFields, bool) {
	m := rePromotedTo.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	out := PeopleFields{Name: m[1]}
	if left, right, ok := splitAtOf(m[2]); ok {
		out.Designation = left
		out.Company = right
	} else {
		out.Designation = m[2]
	}
	return out, true
}

// Rule 7: "<name> named|appointed (as) <designation> at <company>".
// The designation/company split uses the final " at " so multi-word
// titles like "Head of Content at Netflix India" survive intact.
func ruleNamedAppointed(title string) (PeopleFields, bool) {
	m := reNamedAppointed.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	out := PeopleFields{Name: m[1]}
	tail := m[2]
	if k := strings.LastIndex(strings.ToLower(tail), " at "); k >= 0 {
		out.Designation = tail[:k]
		out.Company = tail[k+4:]
	} else if left, right, ok := splitAtOf(tail); ok {
		out.Designation = left
		out.Company = right
	} else {
		out.Designation = tail
	}
	return out, true
}

// Rule 8: "<name> at <company>".
func ruleNameAtCompany(title string) (PeopleFields, bool) {
	m := reNameAt.FindStringSubmatch(title)
	if m == nil {
		return PeopleFields{}, false
	}
	return PeopleFields{Name: m[1], Company: m[2]}, true
}

// Rule 9: final fallback, whole title as a bare name.
func ruleBareName(title string) (PeopleFields, bool) {
	return PeopleFields{Name: title}, true
}
