package core

// AccountBalance is the current balance of one account.
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Balance   Money  `json:"balance"`
	Pending   Money  `json:"pending"`
}

// BudgetUsage compares what was spent in a budget's category and month
// against what was planned.
type BudgetUsage struct {
	BudgetID   string `json:"budget_id"`
	CategoryID string `json:"category_id"`
	Month      string `json:"month"`
	Planned    Money  `json:"planned"`
	Spent      Money  `json:"spent"`
	Remaining  Money  `json:"remaining"`
	Percent    int    `json:"percent"`
	Alert      bool   `json:"alert"`
}
