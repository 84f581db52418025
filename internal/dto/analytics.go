package dto

type AnalyticsResponse struct {
	MonthlyTotal   float64            `json:"monthlyTotal"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
	DailySpending  []DailySpending    `json:"dailySpending"`
	TopMerchants   []MerchantTotal    `json:"topMerchants"`
	TopItems       []ItemStat         `json:"topItems"`
	Budgets        []BudgetResponse   `json:"budgets"`
	Metadata       AnalyticsMetadata  `json:"metadata"`
}

type DailySpending struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Total    float64 `json:"total"`
}

type ItemStat struct {
	Name       string  `json:"name"`
	TotalSpent float64 `json:"totalSpent"`
	Count      int     `json:"count"`
}

type AnalyticsMetadata struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	ReceiptCount int    `json:"receiptCount"`
}
