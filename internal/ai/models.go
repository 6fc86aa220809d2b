package ai

// ProviderConfig holds the configuration needed to create an extractor
// provider.
type ProviderConfig struct {
	Provider string // "anthropic" | "openai"
	APIKey   string
	Model    string
}

// PeopleFields is the structured result of extracting a people-movement
// headline. Empty strings mean the extractor could not determine the field.
type PeopleFields struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Designation string `json:"designation"`
}

// FundingFields is the structured result of extracting a funding headline.
// Empty strings mean the extractor could not determine the field.
type FundingFields struct {
	Company   string `json:"company"`
	Amount    string `json:"amount"`
	Round     string `json:"round"`
	Investors string `json:"investors"`
}
