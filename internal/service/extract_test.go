package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendscan/internal/models"
)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"day first slash", "Receipt 12/03/2024 thank you", "2024-03-12"},
		{"day first dash", "Date: 25-12-2023", "2023-12-25"},
		{"year first", "Printed 2024/03/12 09:15", "2024-03-12"},
		{"short day and month", "5/6/24", "2024-06-05"},
		{"short year dash", "1-2-23", "2023-02-01"},
		{"embedded in line", "Store #42 visited on 07/01/2025 at noon", "2025-01-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, ok := extractDate(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, date.Format("2006-01-02"))
		})
	}
}

func TestExtractDate_NoMatch(t *testing.T) {
	for _, text := range []string{"", "no dates here", "totals 12.50"} {
		_, ok := extractDate(text)
		assert.False(t, ok, "expected no date in %q", text)
	}
}

func TestExtractDate_PatternPriority(t *testing.T) {
	// The first pattern in priority order wins even when a later pattern
	// matches earlier in the text.
	date, ok := extractDate("2023/01/01 then 12/03/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-12", date.Format("2006-01-02"))
}

func TestExtractDate_SkipsInvalidCalendarMatch(t *testing.T) {
	// 13 is not a month, so the two-digit match is rejected and the looser
	// pattern picks up the valid date later in the text.
	date, ok := extractDate("99/99/2024 but also 5/6/24")
	require.True(t, ok)
	assert.Equal(t, "2024-06-05", date.Format("2006-01-02"))
}

func TestExtractTotal(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"total with dollar sign", "Total: $42.50", 42.50},
		{"total anchored beats bare currency", "Subtotal 10.00\nTotal 12.50", 12.50},
		{"comma decimal", "TOTAL 15,90", 15.90},
		{"bare currency symbol", "$ 7.25 paid by card", 7.25},
		{"loose total pattern", "total amount due is 99.99", 99.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, ok := extractTotal(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestExtractTotal_NoMatch(t *testing.T) {
	for _, text := range []string{"", "thanks for shopping", "total due tomorrow"} {
		_, ok := extractTotal(text)
		assert.False(t, ok, "expected no total in %q", text)
	}
}

func TestExtractItems(t *testing.T) {
	text := "Milk 2.50\nBread 1.20\nTotal 3.70"

	items := extractItems(text)

	require.Len(t, items, 2)
	assert.Equal(t, models.Item{Name: "Milk", Price: 2.50}, items[0])
	assert.Equal(t, models.Item{Name: "Bread", Price: 1.20}, items[1])
}

func TestExtractItems_LastPriceOnLineWins(t *testing.T) {
	// Quantity-style columns leave several amounts on one line; the trailing
	// one is the price column.
	items := extractItems("Apples 2 x 1.25 2.50\n")

	require.Len(t, items, 1)
	assert.Equal(t, 2.50, items[0].Price)
	assert.Equal(t, "Apples 2 x", items[0].Name)
}

func TestExtractItems_SkipsNoise(t *testing.T) {
	text := "Subtotal 10.00\nTOTAL 12.50\nab\n1.99\nCoffee 4.40"

	items := extractItems(text)

	require.Len(t, items, 1)
	assert.Equal(t, "Coffee", items[0].Name)
	assert.Equal(t, 4.40, items[0].Price)
}

func TestExtractItems_CommaDecimalAndOrder(t *testing.T) {
	items := extractItems("Wasser 1,10\nBrot 2,35")

	require.Len(t, items, 2)
	assert.Equal(t, models.Item{Name: "Wasser", Price: 1.10}, items[0])
	assert.Equal(t, models.Item{Name: "Brot", Price: 2.35}, items[1])
}

func TestExtractItems_Empty(t *testing.T) {
	assert.Empty(t, extractItems(""))
	assert.Empty(t, extractItems("no prices on this line"))
}
