// Package core defines subscription plans, pricing and period arithmetic
package core

import (
	"math"
	"time"

	"github.com/mantonx/streamflow/internal/database"
)

// Billing periods
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Plan is a subscription offer. Amounts are net, in cents.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MonthlyCents int64    `json:"monthly_cents"`
	YearlyCents  int64    `json:"yearly_cents"`
	GrantsVIP    bool     `json:"grants_vip"`
	Features     []string `json:"features"`
}

// Plans lists every plan, cheapest first
var Plans = []Plan{
	{ID: "standard", Name: "Standard", MonthlyCents: 999, YearlyCents: 9999,
		Features: []string{"Full catalog", "HD streaming"}},
	{ID: "premium", Name: "Premium", MonthlyCents: 1499, YearlyCents: 14999, GrantsVIP: true,
		Features: []string{"Full catalog", "VIP content", "Full HD streaming"}},
	{ID: "vip", Name: "VIP", MonthlyCents: 1999, YearlyCents: 17999, GrantsVIP: true,
		Features: []string{"Full catalog", "VIP content", "4K streaming", "Early access"}},
}

// FindPlan returns the plan with id
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// VIPPlanIDs returns the ids of plans that grant VIP
func VIPPlanIDs() []string {
	var ids []string
	for _, p := range Plans {
		if p.GrantsVIP {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ValidPeriod reports whether period is monthly or yearly
func ValidPeriod(period string) bool {
	return period == PeriodMonthly || period == PeriodYearly
}

// Price is the breakdown of one charge in cents
type Price struct {
	Net   int64 `json:"net"`
	Tax   int64 `json:"tax"`
	Gross int64 `json:"gross"`
}

// PriceFor computes the price of a plan for a period. Tax is rounded to the
// nearest cent.
func PriceFor(plan Plan, period string, taxRate float64) Price {
	net := plan.MonthlyCents
	if period == PeriodYearly {
		net = plan.YearlyCents
	}
	tax := int64(math.Round(float64(net) * taxRate))
	return Price{Net: net, Tax: tax, Gross: net + tax}
}

// PlanPricing is a plan with both periods priced
type PlanPricing struct {
	Plan
	Monthly Price `json:"monthly"`
	Yearly  Price `json:"yearly"`
}

// Pricing prices every plan
func Pricing(taxRate float64) []PlanPricing {
	out := make([]PlanPricing, 0, len(Plans))
	for _, p := range Plans {
		out = append(out, PlanPricing{
			Plan:    p,
			Monthly: PriceFor(p, PeriodMonthly, taxRate),
			Yearly:  PriceFor(p, PeriodYearly, taxRate),
		})
	}
	return out
}

// PeriodEnd returns the end of a period starting at start
func PeriodEnd(start time.Time, period string) time.Time {
	if period == PeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// PeriodStart picks the start of a new period. A subscription still running
// at now is extended from its end date.
func PeriodStart(now time.Time, running *database.Subscription) time.Time {
	if running != nil && running.EndDate != nil && running.EndDate.After(now) {
		return *running.EndDate
	}
	return now
}
