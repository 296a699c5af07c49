package core

import (
	"testing"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	premium, ok := FindPlan("premium")
	require.True(t, ok)

	assert.Equal(t, Price{Net: 1499, Tax: 300, Gross: 1799}, PriceFor(premium, PeriodMonthly, 0.20))
	assert.Equal(t, Price{Net: 14999, Tax: 3000, Gross: 17999}, PriceFor(premium, PeriodYearly, 0.20))

	standard, _ := FindPlan("standard")
	assert.Equal(t, Price{Net: 999, Tax: 0, Gross: 999}, PriceFor(standard, PeriodMonthly, 0))

	_, ok = FindPlan("gold")
	assert.False(t, ok)
}

func TestPricingCoversEveryPlan(t *testing.T) {
	pricing := Pricing(0.20)
	require.Len(t, pricing, 3)
	assert.Equal(t, "vip", pricing[2].ID)
	assert.Equal(t, int64(2399), pricing[2].Monthly.Gross)
	assert.Equal(t, []string{"premium", "vip"}, VIPPlanIDs())
}

func TestPeriods(t *testing.T) {
	start := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), PeriodEnd(start, PeriodMonthly))
	assert.Equal(t, time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC), PeriodEnd(start, PeriodYearly))

	assert.True(t, ValidPeriod("yearly"))
	assert.False(t, ValidPeriod("weekly"))
}

func TestPeriodStartExtendsRunningSubscription(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(10 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	assert.Equal(t, now, PeriodStart(now, nil))
	assert.Equal(t, future, PeriodStart(now, &database.Subscription{EndDate: &future}))
	assert.Equal(t, now, PeriodStart(now, &database.Subscription{EndDate: &past}))
	assert.Equal(t, now, PeriodStart(now, &database.Subscription{}))
}
