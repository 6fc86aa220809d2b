package parse

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adityamenon/newsdesk/internal/ai"
)

// FundingFields is the parsed form of a funding headline. Empty strings
// mean the field could not be determined; all-empty means the text was
// a roundup or carried no extractable raise.
type FundingFields struct {
	Company   string
	Amount    string
	Round     string
	Investors string
}

// Empty reports whether nothing was extracted.
func (f FundingFields) Empty() bool {
	return f.Company == "" && f.Amount == "" && f.Round == "" && f.Investors == ""
}

// FundingParser parses funding headlines LLM-first, bounded by the
// per-request budget on Stats, with a rule-based fallback and patch
// pass.
type FundingParser struct {
	extractor ai.Extractor // nil disables the LLM path
	logger    *slog.Logger
}

// NewFundingParser creates a funding parser. extractor may be nil.
func NewFundingParser(extractor ai.Extractor, logger *slog.Logger) *FundingParser {
	return &FundingParser{extractor: extractor, logger: logger}
}

// roundupPhrases mark digest/recap pseudo-articles that cover many
// companies at once; those never yield a single funding record.
var roundupPhrases = []string{
	"weekly funding roundup",
	"funding roundup",
	"weekly roundup",
	"this week in funding",
	"funding digest",
	"round-up",
	"round up",
}

func looksLikeRoundup(s string) bool {
	s = strings.ToLower(s)
	for _, key := range roundupPhrases {
		if strings.Contains(s, key) {
			return true
		}
	}
	return false
}

// Parse extracts funding fields from a headline plus optional summary.
// Roundups short-circuit to all-empty, both before and after parsing so
// an extractor that hallucinates fields on a digest cannot leak them.
func (p *FundingParser) Parse(ctx context.Context, title, summary string, stats *Stats) FundingFields {
	if looksLikeRoundup(title) || looksLikeRoundup(summary) {
		stats.RoundupsSkipped++
		return FundingFields{}
	}

	t := normFundingText(title)
	s := normFundingText(summary)

	var parsed *FundingFields
	if p.extractor != nil && stats.BudgetRemaining > 0 {
		stats.BudgetRemaining--
		stats.LLMCalls++
		got, err := p.extractor.ExtractFunding(ctx, t, s)
		if err != nil {
			p.logger.Debug("funding llm extraction failed", "title", title, "error", err)
		} else {
			stats.LLMSuccess++
			parsed = &FundingFields{
				Company:   cleanCompanyPhrase(got.Company),
				Amount:    got.Amount,
				Round:     got.Round,
				Investors: got.Investors,
			}
		}
	}

	if parsed == nil {
		stats.RulesCalls++
		rules := parseFundingRules(t, s)
		parsed = &rules
	} else {
		// Rules only fill fields the LLM left empty, never overwrite.
		rules := parseFundingRules(t, s)
		patched := false
		if parsed.Company == "" && rules.Company != "" {
			parsed.Company = rules.Company
			patched = true
		}
		if parsed.Amount == "" && rules.Amount != "" {
			parsed.Amount = rules.Amount
			patched = true
		}
		if parsed.Round == "" && rules.Round != "" {
			parsed.Round = rules.Round
			patched = true
		}
		if parsed.Investors == "" && rules.Investors != "" {
			parsed.Investors = rules.Investors
			patched = true
		}
		if patched {
			stats.LLMPatched++
		}
	}

	parsed.Company = cleanCompany(parsed.Company)
	parsed.Amount = normalizeAmount(parsed.Amount)
	if parsed.Round != "" {
		parsed.Round = tidyRound(parsed.Round)
	}
	parsed.Investors = cleanInvestors(parsed.Investors)

	if looksLikeRoundup(t + " " + s) {
		stats.RoundupsSkipped++
		return FundingFields{}
	}

	return *parsed
}

// normFundingText folds currency symbols and smart punctuation so the
// regexes below only deal with one spelling of each.
func normFundingText(s string) string {
	s = strings.ReplaceAll(s, "₹", "INR ")
	s = strings.ReplaceAll(s, "Rs.", "Rs ")
	s = strings.ReplaceAll(s, "Rs", "Rs ")
	r := strings.NewReplacer("’", "'", "–", "-", "—", "-")
	s = r.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseFundingRules(title, summary string) FundingFields {
	text := strings.TrimSpace(title + " " + summary)
	amount := extractAmount(text)
	round := extractRound(text)
	investors := extractInvestors(text)
	company := extractCompany(title, summary)
	return FundingFields{Company: company, Amount: amount, Round: round, Investors: investors}
}

const (
	fundingVerbs = `(?:raises|raised|raise|secures|secured|bags|snags|lands|gets|obtains|picks up|closes|rakes in|snaps up|receives|garners?|attracts|mops up)`
	roundWords   = `(?:pre[-\s]?seed|seed|angel|friends\s*&\s*family|pre[-\s]?series\s*[A-K]|series\s*[A-K]|bridge|growth|late[-\s]?stage|venture\s*debt|debt|convertible\s*note|mezzanine|strategic(?:\s*investment)?|follow[-\s]?on|extension)`
)

// Compound "-based" forms come first so the alternation consumes the
// whole lead instead of the bare city name.
var descriptorLeads = `(?:US-based|UK-based|India-based|Singapore-based|Bengaluru-based|Delhi-based|Mumbai-based|Hyderabad-based|Chennai-based|Gurgaon-based|Noida-based|Pune-based|Bengaluru|Delhi|Gurugram|Gurgaon|Mumbai|Pune|Hyderabad|Chennai|Noida|Kolkata|India|US|UK|Singapore|Dubai|European|American|Indian)\b`

// ----- amounts -----

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*(?:million|mn|billion|bn|m|b)?`),
	regexp.MustCompile(`(?i)US\$\s*\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*(?:million|mn|billion|bn|m|b)?`),
	regexp.MustCompile(`(?i)USD\s*\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*(?:million|mn|billion|bn|m|b)?`),
	regexp.MustCompile(`(?i)(?:INR|Rs\.?)\s*\d{1,3}(?:,\d{2,3})*(?:\.\d+)?\s*(?:crore|cr|lakh|lakhs)?`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:crore|cr|lakh|lakhs)\s*(?:INR)?`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:m|mn|million|bn|billion)\b`),
}

func extractAmount(text string) string {
	for _, pat := range amountPatterns {
		if m := pat.FindString(text); m != "" {
			return normalizeAmount(m)
		}
	}
	return ""
}

var (
	reCr        = regexp.MustCompile(`(?i)\bcr\b`)
	reUSDPrefix = regexp.MustCompile(`(?i)^(?:\$|US\$|USD)`)
	reMillionUS = regexp.MustCompile(`(?i)\s*(million|mn|m)\b`)
	reBillionUS = regexp.MustCompile(`(?i)\s*(billion|bn|b)\b`)
	reMillion   = regexp.MustCompile(`(?i)\b(million|mn|m)\b`)
	reBillion   = regexp.MustCompile(`(?i)\b(billion|bn|b)\b`)
)

// normalizeAmount canonicalizes units: dollar amounts get a tight
// uppercase M/B suffix, INR keeps crore/Cr spelling.
func normalizeAmount(amt string) string {
	amt = strings.Join(strings.Fields(amt), " ")
	if amt == "" {
		return ""
	}

	amt = reCr.ReplaceAllString(amt, "Cr")

	if reUSDPrefix.MatchString(amt) {
		amt = reMillionUS.ReplaceAllString(amt, "M")
		amt = reBillionUS.ReplaceAllString(amt, "B")
	} else {
		amt = reMillion.ReplaceAllString(amt, "M")
		amt = reBillion.ReplaceAllString(amt, "B")
	}
	return strings.TrimSpace(amt)
}

// ----- round -----

var (
	reGenericRound = regexp.MustCompile(`(?i)\bfunding\s+round\b`)
	roundPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + roundWords + `\s*(?:round)?\b`),
		regexp.MustCompile(`(?i)\b(pre[-\s]?series\s*[A-K]\s*round)\b`),
		regexp.MustCompile(`(?i)\b(series\s*[A-K]\s*round)\b`),
		regexp.MustCompile(`(?i)\b(seed\s*round)\b`),
		regexp.MustCompile(`(?i)\b(angel\s*round)\b`),
		regexp.MustCompile(`(?i)\b(bridge\s*round)\b`),
		regexp.MustCompile(`(?i)\b(venture\s*debt)\b`),
		regexp.MustCompile(`(?i)\b(debt\s*round)\b`),
	}
	reBareSeries = regexp.MustCompile(`(?i)\b(pre[-\s]?series\s*[A-K]|series\s*[A-K])\b`)
)

func extractRound(text string) string {
	genericPresent := reGenericRound.MatchString(text)

	for _, pat := range roundPatterns {
		if m := pat.FindString(text); m != "" {
			return tidyRound(m)
		}
	}
	if m := reBareSeries.FindString(text); m != "" {
		return tidyRound(m)
	}
	if genericPresent {
		return "Funding"
	}
	return ""
}

var (
	rePreSeries    = regexp.MustCompile(`(?i)\bpre[-\s]?series\b`)
	reSeriesLetter = regexp.MustCompile(`(?i)\bseries\s*([a-k])\b`)
	reSeedRound    = regexp.MustCompile(`(?i)\bseed round\b`)
	reAngelRound   = regexp.MustCompile(`(?i)\bangel round\b`)
	reBridgeRound  = regexp.MustCompile(`(?i)\bbridge round\b`)
	reDebtRound    = regexp.MustCompile(`(?i)\bdebt round\b`)
	reVentureDebt  = regexp.MustCompile(`(?i)\bventure debt\b`)
)

func tidyRound(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	s = rePreSeries.ReplaceAllString(s, "Pre-Series")
	s = reSeriesLetter.ReplaceAllStringFunc(s, func(m string) string {
		letter := m[len(m)-1:]
		return "Series " + strings.ToUpper(letter)
	})
	s = reSeedRound.ReplaceAllString(s, "Seed")
	s = reAngelRound.ReplaceAllString(s, "Angel")
	s = reBridgeRound.ReplaceAllString(s, "Bridge")
	s = reDebtRound.ReplaceAllString(s, "Debt")
	s = reVentureDebt.ReplaceAllString(s, "Venture Debt")
	return s
}

// ----- investors -----

var (
	investorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:led by|co[-\s]?led by|round led by)\s+(.+?)(?:[,.;]| with | and | along|$)`),
		regexp.MustCompile(`(?i)(?:from|by|backed by|with participation from|participation from|including|include)\s+(.+?)(?:[,.;]| and | along|$)`),
		regexp.MustCompile(`(?i)(?:investors?\s+(?:include|including))\s+(.+?)(?:[,.;]| and | along|$)`),
	}
	reValuationClause = regexp.MustCompile(`(?i)\b(?:for|worth|valued at)\s+\$?\d[\d,.]*\s*(?:M|mn|million|B|bn|billion|cr|crore|lakh|lakhs)?\b`)
)

func extractInvestors(text string) string {
	for _, pat := range investorPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cand := strings.Trim(m[1], " ,;.")
		cand = reValuationClause.ReplaceAllString(cand, "")
		cand = strings.Trim(strings.Join(strings.Fields(cand), " "), " ,;.")
		if cand != "" {
			return cand
		}
	}
	return ""
}

// ----- company -----

var (
	reSubjectVerb      = regexp.MustCompile(`(?i)^(.+?)\s+` + fundingVerbs + `\b`)
	reSubjectVerbLoose = regexp.MustCompile(`(?i)^(.+?)\b` + fundingVerbs + `\b`)
	reRoundFor         = regexp.MustCompile(`(?i)\b(?:round|funding|investment)\s+for\s+(.+?)(?:[,.;]|$)`)
	rePossessiveRound  = regexp.MustCompile(`(?i)\b(.+?)\s*'s\s+(?:.*?\bround\b|funding)\b`)
	reRoundColonVerb   = regexp.MustCompile(`(?i)\b` + roundWords + `\b\s*:\s*(.+?)\s+` + fundingVerbs + `\b`)
	rePossessive       = regexp.MustCompile(`'s`)

	reDescriptorLead = regexp.MustCompile(`(?i)^` + descriptorLeads + `\s*,?\s*`)
	reApposition     = regexp.MustCompile(`(?i)\s*,\s*(?:an?|the)\b|\s*,\s*(?:a|an)\s+\w+`)
	reTrailingThe    = regexp.MustCompile(`(?i),\s*the\s+[^,]+$`)
	reCompanySuffix  = regexp.MustCompile(`(?i)\b(startup|company|firm|platform|app|venture|business)\b$`)

	reNameBreakWord = regexp.MustCompile(`(?i)^(?:Series|Seed|Pre[-\s]?Series|Funding|Round)$`)
	reNamePart      = regexp.MustCompile(`^[A-Z][\w.\-&]*$`)
	reAcronymPart   = regexp.MustCompile(`^[A-Z0-9&\-.]{2,}$`)
)

func depossess(s string) string {
	return strings.TrimSpace(rePossessive.ReplaceAllString(s, ""))
}

func extractCompany(title, summary string) string {
	m := reSubjectVerb.FindStringSubmatch(title)
	if m == nil {
		m = reSubjectVerbLoose.FindStringSubmatch(title)
	}
	if m != nil {
		if left := cleanCompanyPhrase(m[1]); left != "" {
			return depossess(left)
		}
	}

	combined := strings.TrimSpace(title + " " + summary)
	if m := reRoundFor.FindStringSubmatch(combined); m != nil {
		return depossess(cleanCompanyPhrase(m[1]))
	}
	if m := rePossessiveRound.FindStringSubmatch(combined); m != nil {
		return depossess(cleanCompanyPhrase(m[1]))
	}
	if m := reRoundColonVerb.FindStringSubmatch(title); m != nil {
		return depossess(cleanCompanyPhrase(m[1]))
	}

	if cand := firstProperChunk(title); cand != "" {
		return depossess(cleanCompanyPhrase(cand))
	}
	return ""
}

// cleanCompanyPhrase strips city/region descriptor leads and trailing
// appositions ("Acme, a Bengaluru-based ...") from a company phrase.
func cleanCompanyPhrase(s string) string {
	s = strings.Trim(s, " ,;.-")
	s = reDescriptorLead.ReplaceAllString(s, "")
	if loc := reApposition.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = reTrailingThe.ReplaceAllString(s, "")
	return strings.Trim(strings.Join(strings.Fields(s), " "), " ,;.-")
}

// firstProperChunk grabs the leading run of capitalized tokens before
// the funding verb, as a last-resort company guess.
func firstProperChunk(text string) string {
	cand := text
	if m := reSubjectVerb.FindStringSubmatch(text); m != nil {
		cand = m[1]
	}
	var buff []string
	for _, w := range strings.Fields(cand) {
		if reNameBreakWord.MatchString(w) {
			break
		}
		if reNamePart.MatchString(w) || reAcronymPart.MatchString(w) {
			buff = append(buff, w)
		} else if len(buff) > 0 {
			break
		}
	}
	return strings.Trim(strings.Join(buff, " "), " ,;.-")
}

func cleanCompany(s string) string {
	if s == "" {
		return s
	}
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " ,;.-")
	// Keep a descriptive prefix that is part of the name phrase
	// ("Kitchenware startup Cumin Co"); only a trailing generic word goes.
	s = strings.TrimSpace(reCompanySuffix.ReplaceAllString(s, ""))
	return s
}

var reCommaSpacing = regexp.MustCompile(`\s*,\s*`)

func cleanInvestors(s string) string {
	if s == "" {
		return s
	}
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " ,;.")
	s = strings.ReplaceAll(s, " and ", ", ")
	s = reCommaSpacing.ReplaceAllString(s, ", ")
	return s
}
