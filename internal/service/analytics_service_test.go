package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spendscan/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func TestSumByCategory(t *testing.T) {
	receipts := []*models.Receipt{
		{Category: models.CategoryFood, Total: floatPtr(10)},
		{Category: models.CategoryFood, Total: floatPtr(20)},
		{Category: models.CategoryShopping, Total: floatPtr(30)},
	}

	total, byCategory := sumByCategory(receipts)

	assert.Equal(t, 60.0, total)
	assert.Equal(t, map[string]float64{"food": 30, "shopping": 30}, byCategory)
}

func TestSumByCategory_SkipsMissingTotals(t *testing.T) {
	receipts := []*models.Receipt{
		{Category: models.CategoryFood, Total: floatPtr(10)},
		{Category: models.CategoryFood, Total: nil},
	}

	total, byCategory := sumByCategory(receipts)

	assert.Equal(t, 10.0, total)
	assert.Equal(t, map[string]float64{"food": 10}, byCategory)
}

func TestSumByCategory_Empty(t *testing.T) {
	total, byCategory := sumByCategory(nil)

	assert.Equal(t, 0.0, total)
	assert.Empty(t, byCategory)
}

func TestCurrentMonthRange(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 30, 0, 0, time.UTC)

	start, end := CurrentMonthRange(now)

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 31, end.Day())
	assert.True(t, end.Before(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
}
