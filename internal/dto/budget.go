package dto

type SetBudgetRequest struct {
	Category string   `json:"category" validate:"required,oneof=food transportation entertainment shopping utilities healthcare others"`
	Amount   *float64 `json:"amount" validate:"required,gte=0"`
}

type BudgetResponse struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BudgetHistoryResponse reports, per category with a budget set, how many
// months spending stayed within the budget and by how much on average.
type BudgetHistoryResponse struct {
	Stats  map[string]CategoryBudgetStats `json:"stats"`
	Months []MonthRef                     `json:"months"`
}

type CategoryBudgetStats struct {
	MonthsUnder int     `json:"monthsUnder"`
	MonthsOver  int     `json:"monthsOver"`
	AvgUnderPct float64 `json:"avgUnderPct"`
	AvgOverPct  float64 `json:"avgOverPct"`
	TotalMonths int     `json:"totalMonths"`
}

type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}
