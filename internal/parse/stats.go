package parse

// Stats tracks parser activity for a single aggregation request. It is
// created at request start and threaded through every parse call, so
// budgets and counters never leak between requests.
type Stats struct {
	LLMCalls        int `json:"llm_calls"`
	LLMSuccess      int `json:"llm_success"`
	LLMPatched      int `json:"llm_patched"`
	RulesCalls      int `json:"rules_calls"`
	RoundupsSkipped int `json:"roundups_skipped"`

	// BudgetRemaining is the number of LLM calls still allowed in this
	// request. It only ever decreases.
	BudgetRemaining int `json:"llm_budget_remaining"`
}

// NewStats returns request-scoped stats with the given LLM call budget.
func NewStats(budget int) *Stats {
	return &Stats{BudgetRemaining: budget}
}
