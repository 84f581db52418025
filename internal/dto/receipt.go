package dto

// UploadReceiptResponse is returned synchronously by the upload endpoint,
// before extraction finishes.
type UploadReceiptResponse struct {
	Message string         `json:"message"`
	Receipt ReceiptSummary `json:"receipt"`
}

type ReceiptSummary struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Category   string `json:"category"`
	UploadDate string `json:"uploadDate"`
	Status     string `json:"status"`
}

// ReceiptStatusResponse is the polling view of a receipt. Data is non-nil
// only when Status is "completed".
type ReceiptStatusResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Data   *ReceiptData `json:"data"`
}

type ReceiptData struct {
	Merchant *string       `json:"merchant"`
	Date     *string       `json:"date"`
	Total    *float64      `json:"total"`
	Items    []ReceiptItem `json:"items"`
	Category string        `json:"category"`
}

type ReceiptItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
