package core

import "fmt"

// Message renders the user-facing alert text for a category status, or "" when
// the state carries no message.
func (cs CategoryStatus) Message(symbol string) string {
	switch cs.State {
	case Exceeded:
		return fmt.Sprintf("Limit exceeded in %s by %s", cs.Category, cs.Overage.Format(symbol))
	case LowRemaining:
		return fmt.Sprintf("Alert: Only %s remaining in your %s budget.", cs.Remaining.Format(symbol), cs.Category)
	case Healthy:
		return fmt.Sprintf("All good with %s budget.", cs.Category)
	default:
		return ""
	}
}
