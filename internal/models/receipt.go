package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

type Category string

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryOthers         Category = "others"
)

// Categories lists every valid spending category.
var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryOthers,
}

// ParseCategory maps a raw form value to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type ProcessingStatus string

const (
	// StatusPending exists for wire compatibility but is never produced:
	// upload inserts records directly as StatusProcessing.
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Item is a single line item extracted from a receipt, in transcript order.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Receipt is one uploaded proof-of-purchase document plus its extracted data.
// Extraction fields are nil until Status is StatusCompleted and stay nil
// forever when processing fails.
type Receipt struct {
	ID         uuid.UUID `db:"id"`
	Filename   string    `db:"filename"`
	Path       string    `db:"path"`
	MimeType   string    `db:"mime_type"`
	SizeBytes  int64     `db:"size_bytes"`
	Category   Category  `db:"category"`
	UploadDate time.Time `db:"upload_date"`

	Merchant   *string    `db:"merchant"`
	Date       *time.Time `db:"receipt_date"`
	Total      *float64   `db:"total"`
	Items      []Item     `db:"items"`
	RawText    *string    `db:"raw_text"`
	Confidence *float64   `db:"confidence"`

	Status ProcessingStatus `db:"status"`
}

// ExtractionResult carries everything the extraction pipeline derived from
// one transcript. Merchant, Date and Total are nil when the corresponding
// heuristic found nothing, which is an expected partial outcome.
type ExtractionResult struct {
	Merchant   *string
	Date       *time.Time
	Total      *float64
	Items      []Item
	RawText    string
	Confidence float64
}
