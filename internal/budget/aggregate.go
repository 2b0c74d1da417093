package budget

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/evbudget/internal/model"
)

var (
	warningPct  = decimal.NewFromInt(40)
	criticalPct = decimal.NewFromInt(15)
)

// Compute derives every figure for a snapshot. Events keep store order.
func Compute(st model.State) model.Summary {
	sum := model.Summary{
		EventCount:         len(st.Events),
		TotalSharedCost:    TotalSharedCost(st.SharedCosts),
		SharedCostPerEvent: SharedCostPerEvent(st.SharedCosts, len(st.Events)),
		Events:             make([]model.EventFigures, 0, len(st.Events)),
		TotalSpent:         decimal.Zero,
		TotalRemaining:     decimal.Zero,
	}

	for _, ev := range st.Events {
		f := EventFiguresFor(ev, sum.SharedCostPerEvent)
		sum.Events = append(sum.Events, f)
		sum.TotalBudget += f.TotalBudget
		sum.TotalSpent = sum.TotalSpent.Add(f.TotalSpent)
		sum.TotalRemaining = sum.TotalRemaining.Add(f.Remaining)
	}

	return sum
}

// EventFiguresFor derives one event's figures given its share of the pool.
func EventFiguresFor(ev model.Event, sharedPerEvent decimal.Decimal) model.EventFigures {
	spent := TotalSpent(ev, sharedPerEvent)
	remaining := RemainingBudget(ev, spent)

	f := model.EventFigures{
		EventID:      ev.ID,
		Name:         ev.Name,
		TotalBudget:  ev.TotalBudget,
		Attendees:    ev.Attendees,
		OwnCost:      OwnCostTotal(ev),
		SharedShare:  sharedPerEvent,
		TotalSpent:   spent,
		Remaining:    remaining,
		ProfitMargin: ProfitMargin(ev, remaining),
	}
	for _, t := range ev.Tasks {
		if t.IsComplete {
			f.CompletedTasks++
		} else {
			f.PendingTasks++
		}
	}
	return f
}

// RemainingPercent is remaining as a percentage of budget, zero when the
// budget is not positive.
func RemainingPercent(remaining decimal.Decimal, totalBudget int64) decimal.Decimal {
	if totalBudget <= 0 {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(totalBudget)).Mul(hundred)
}

// Health buckets the remaining budget: under 15% is critical, under 40% a
// warning.
func Health(remaining decimal.Decimal, totalBudget int64) model.Health {
	if totalBudget <= 0 {
		return model.HealthCritical
	}
	pct := RemainingPercent(remaining, totalBudget)
	switch {
	case pct.LessThan(criticalPct):
		return model.HealthCritical
	case pct.LessThan(warningPct):
		return model.HealthWarning
	default:
		return model.HealthGood
	}
}

// MarginScale is the largest absolute margin across events, used to scale
// margin charts. It falls back to 100 when every margin is zero.
func MarginScale(figs []model.EventFigures) decimal.Decimal {
	scale := decimal.Zero
	for _, f := range figs {
		if m := f.ProfitMargin.Abs(); m.GreaterThan(scale) {
			scale = m
		}
	}
	if scale.IsZero() {
		return hundred
	}
	return scale
}
