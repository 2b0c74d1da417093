package model

// Health classifies how much of an event's budget is still available.
type Health int

const (
	HealthGood     Health = iota // 40% or more remaining
	HealthWarning                // under 40% remaining
	HealthCritical               // under 15% remaining, or overspent
)

func (h Health) String() string {
	switch h {
	case HealthWarning:
		return "warning"
	case HealthCritical:
		return "critical"
	default:
		return "good"
	}
}
