package models

import "time"

// Movement is a stored people-spotting article: a headline announcing a
// hire, promotion, or similar positive people move.
type Movement struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FundingItem is a candidate funding article pulled from an RSS/Atom
// feed. Funding items are fetched per cycle and cached, never persisted.
type FundingItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Source      string     `json:"source"`
}

// Override is a user-entered correction for a single article URL. A
// non-empty field replaces the corresponding parsed value; empty fields
// leave the parsed value alone.
type Override struct {
	URL         string    `json:"url"`
	Type        string    `json:"type,omitempty"`
	Name        string    `json:"name,omitempty"`
	Company     string    `json:"company,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Round       string    `json:"round,omitempty"`
	Investors   string    `json:"investors,omitempty"`
	Date        string    `json:"date,omitempty"`
	Month       string    `json:"month,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Row types for the merged news table.
const (
	TypePeople  = "In the News"
	TypeFunding = "Funding"
)

// FlatRow is one row of the merged news table served to the UI.
type FlatRow struct {
	Company             string `json:"company,omitempty"`
	Name                string `json:"name,omitempty"`
	Designation         string `json:"designation,omitempty"`
	AmbassadorFeaturing string `json:"ambassador_featuring,omitempty"`
	Amount              string `json:"amount,omitempty"`
	Round               string `json:"round,omitempty"`
	Investors           string `json:"investors,omitempty"`
	Link                string `json:"link"`
	Date                string `json:"date,omitempty"`
	Month               string `json:"month,omitempty"`
	Type                string `json:"type"`
	Source              string `json:"source,omitempty"`
}
