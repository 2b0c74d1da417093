// Package budget derives spend, remaining budget and margin figures from
// events and the shared cost pool. Every function is pure.
package budget

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/evbudget/internal/model"
)

var hundred = decimal.NewFromInt(100)

// TotalSharedCost sums the shared pool.
func TotalSharedCost(shared []model.CostItem) int64 {
	var total int64
	for _, c := range shared {
		total = addClamped(total, c.Amount)
	}
	return total
}

// SharedCostPerEvent splits the shared pool evenly. Zero events yields zero.
func SharedCostPerEvent(shared []model.CostItem, eventCount int) decimal.Decimal {
	if eventCount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(TotalSharedCost(shared)).Div(decimal.NewFromInt(int64(eventCount)))
}

// EffectiveCost is what a cost item actually costs for an event with the
// given attendance.
func EffectiveCost(item model.CostItem, attendees int64) int64 {
	if item.IsVariable {
		return mulClamped(item.Amount, attendees)
	}
	return item.Amount
}

// OwnCostTotal sums the event's own costs. Variable items scale with attendees.
func OwnCostTotal(ev model.Event) int64 {
	var total int64
	for _, c := range ev.CostItems {
		total = addClamped(total, EffectiveCost(c, ev.Attendees))
	}
	return total
}

// TotalSpent is the event's own costs plus its share of the pool.
func TotalSpent(ev model.Event, sharedPerEvent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(OwnCostTotal(ev)).Add(sharedPerEvent)
}

// RemainingBudget may be negative when the event is over budget.
func RemainingBudget(ev model.Event, totalSpent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(ev.TotalBudget).Sub(totalSpent)
}

// ProfitMargin is remaining as a percentage of the budget. A non-positive
// budget yields zero.
func ProfitMargin(ev model.Event, remaining decimal.Decimal) decimal.Decimal {
	if ev.TotalBudget <= 0 {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(ev.TotalBudget)).Mul(hundred)
}

// Round rounds a money figure to whole currency units, half away from zero.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// addClamped and mulClamped saturate at the int64 range instead of wrapping.
func addClamped(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}

func mulClamped(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return p
}
