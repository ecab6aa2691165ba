package core

import "time"

// DashboardSummary holds the current-month totals. Error is set when the
// totals could not be computed and the amounts were zeroed.
type DashboardSummary struct {
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	PeriodStart     string  `json:"period_start"`
	PeriodEnd       string  `json:"period_end"`
	Error           string  `json:"error,omitempty"`
}

// LedgerEntry is one exported bookkeeping line.
type LedgerEntry struct {
	Timestamp time.Time
	Entity    string
	Action    string
	ID        int64
	Date      string
	Label     string
	Amount    float64
	Personal  bool
}
