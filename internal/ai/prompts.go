package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const peopleSystemPrompt = `Extract name, company, and designation from a single news headline about a people movement.
Return STRICT JSON with keys exactly: name, company, designation. Use null for unknowns.
Do not invent facts. Keep the output minimal and factual from the headline only.`

// peopleShots are few-shot examples appended to the people system prompt.
var peopleShots = []struct {
	in  string
	out PeopleFields
}{
	{
		in:  "Abraham Thomas appointed as Radio City's Chief Executive Officer",
		out: PeopleFields{Name: "Abraham Thomas", Company: "Radio City", Designation: "Chief Executive Officer"},
	},
	{
		in:  "Jean Laurent Poitou appointed global Chief Executive Officer of Ipsos",
		out: PeopleFields{Name: "Jean Laurent Poitou", Company: "Ipsos", Designation: "Global Chief Executive Officer"},
	},
	{
		in:  "Goldee Patnaik takes charge as Head of PR at OPPO India",
		out: PeopleFields{Name: "Goldee Patnaik", Company: "OPPO India", Designation: "Head of PR"},
	},
	{
		in:  "Gautam Jain to lead content at Sony SAB",
		out: PeopleFields{Name: "Gautam Jain", Company: "Sony SAB", Designation: "Lead, Content"},
	},
	{
		in:  "Anand Sreenivasan to head Oneindia's monetisation & special projects",
		out: PeopleFields{Name: "Anand Sreenivasan", Company: "Oneindia", Designation: "Head monetisation & special projects"},
	},
}

const fundingSystemPrompt = `You are a precise information extractor for startup funding headlines.
Given a single headline (and optional summary), extract these fields:
- company: the startup/company that raised the money (keep descriptive prefix if part of the name phrase like 'Kitchenware startup Cumin Co').
- amount: keep currency and compact units (e.g., $1.5M, US$ 3M, USD 2.2M, INR 10 crore). If no amount present, null.
- round: normalize to Seed/Angel/Pre-Series X/Series X/Bridge/Debt/Venture Debt/Growth/etc. If it only says 'funding round' with no specific label, use 'Funding'. If unknown, null.
- investors: lead investor(s) (e.g., 'Fireside Ventures'); otherwise null.
If the text is a weekly funding roundup/recap (multiple companies), or not a specific raise, set all fields to null.
Return STRICT JSON with keys exactly: company, amount, round, investors. No extra text.`

// fundingShots are few-shot examples appended to the funding system prompt.
var fundingShots = []struct {
	title string
	out   FundingFields
}{
	{
		title: "Kitchenware startup Cumin Co raises $1.5M in funding round led by Fireside Ventures",
		out:   FundingFields{Company: "Kitchenware startup Cumin Co", Amount: "$1.5M", Round: "Funding", Investors: "Fireside Ventures"},
	},
	{
		title: "[Weekly funding roundup Aug 9-16] VC inflow into Indian startups on the rise",
		out:   FundingFields{},
	},
	{
		title: "FintechX secures USD 3 million Seed round from Alpha Capital",
		out:   FundingFields{Company: "FintechX", Amount: "USD 3M", Round: "Seed", Investors: "Alpha Capital"},
	},
	{
		title: "HealthCo raises INR 20 crore in Series A led by Sequoia India",
		out:   FundingFields{Company: "HealthCo", Amount: "INR 20 crore", Round: "Series A", Investors: "Sequoia India"},
	},
}

// PeoplePrompt builds the system and user prompts for people extraction.
func PeoplePrompt(title string) (system, user string) {
	var sb strings.Builder
	sb.WriteString(peopleSystemPrompt)
	sb.WriteString("\n")
	for _, s := range peopleShots {
		out, _ := json.Marshal(s.out)
		fmt.Fprintf(&sb, "Example:\nInput: %s\nOutput: %s\n", s.in, out)
	}
	return sb.String(), fmt.Sprintf("Headline: %s\nRespond with only JSON.", title)
}

// FundingPrompt builds the system and user prompts for funding extraction.
func FundingPrompt(title, summary string) (system, user string) {
	var sb strings.Builder
	sb.WriteString(fundingSystemPrompt)
	sb.WriteString("\n\n")
	for _, s := range fundingShots {
		out, _ := json.Marshal(s.out)
		fmt.Fprintf(&sb, "Example:\nHeadline: %s\nSummary: \nOutput: %s\n", s.title, out)
	}
	return sb.String(), fmt.Sprintf("Headline: %s\nSummary: %s\nRespond with only JSON.", title, summary)
}

// extractJSON strips markdown code fences and surrounding prose from a
// model response, returning the JSON object substring. Models sometimes
// wrap output in ```json fences or add text around the object; we want
// the {...} payload.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Try ```json ... ``` first.
	if after, found := strings.CutPrefix(s, "```json"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		s = strings.TrimSpace(after)
	} else if after, found := strings.CutPrefix(s, "```"); found {
		// Try plain ``` ... ```.
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		s = strings.TrimSpace(after)
	}

	// Slice to the outermost {...} if extra prose remains.
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// decodePeople parses a model response into PeopleFields. JSON nulls
// decode to empty strings.
func decodePeople(text string) (*PeopleFields, error) {
	var out PeopleFields
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return nil, fmt.Errorf("parsing people response JSON: %w", err)
	}
	out.Name = strings.TrimSpace(out.Name)
	out.Company = strings.TrimSpace(out.Company)
	out.Designation = strings.TrimSpace(out.Designation)
	return &out, nil
}

// decodeFunding parses a model response into FundingFields.
func decodeFunding(text string) (*FundingFields, error) {
	var out FundingFields
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return nil, fmt.Errorf("parsing funding response JSON: %w", err)
	}
	out.Company = strings.TrimSpace(out.Company)
	out.Amount = strings.TrimSpace(out.Amount)
	out.Round = strings.TrimSpace(out.Round)
	out.Investors = strings.TrimSpace(out.Investors)
	return &out, nil
}
