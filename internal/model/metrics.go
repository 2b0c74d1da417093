package model

import "github.com/shopspring/decimal"

// Summary holds every derived figure for a state snapshot.
type Summary struct {
	EventCount         int             `json:"eventCount"`
	TotalSharedCost    int64           `json:"totalSharedCost"`
	SharedCostPerEvent decimal.Decimal `json:"sharedCostPerEvent"`

	Events []EventFigures `json:"events"`

	TotalBudget    int64           `json:"totalBudget"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	TotalRemaining decimal.Decimal `json:"totalRemaining"`
}

// EventFigures holds the derived money figures for one event.
type EventFigures struct {
	EventID     string `json:"eventId"`
	Name        string `json:"name"`
	TotalBudget int64  `json:"totalBudget"`
	Attendees   int64  `json:"attendees"`

	OwnCost      int64           `json:"ownCost"`
	SharedShare  decimal.Decimal `json:"sharedShare"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	Remaining    decimal.Decimal `json:"remaining"`
	ProfitMargin decimal.Decimal `json:"profitMargin"` // percent of TotalBudget

	PendingTasks   int `json:"pendingTasks"`
	CompletedTasks int `json:"completedTasks"`
}

// Figures returns the figures for the given event id.
func (s Summary) Figures(eventID string) (EventFigures, bool) {
	for _, f := range s.Events {
		if f.EventID == eventID {
			return f, true
		}
	}
	return EventFigures{}, false
}
