package core

import "time"

// AlertState classifies a category's month-to-date spending against its cap.
type AlertState uint8

const (
	NoActivity AlertState = iota
	Healthy
	LowRemaining
	Exceeded
)

func (s AlertState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case LowRemaining:
		return "low_remaining"
	case Exceeded:
		return "exceeded"
	default:
		return "no_activity"
	}
}

// Totals holds the spent amount per category.
type Totals [numCategories]Money

// Get returns the total for c.
func (t Totals) Get(c Category) Money {
	if !c.Valid() {
		return Money{}
	}
	return t[c]
}

// Sum returns the total over every category.
func (t Totals) Sum() Money {
	var total Money
	for _, m := range t {
		total = total.Add(m)
	}
	return total
}

// CategoryStatus is one row of the monthly breakdown.
type CategoryStatus struct {
	Category  Category
	Spent     Money
	Cap       Money
	State     AlertState
	Remaining Money   // cap - spent, zero when exceeded
	Overage   Money   // spent - cap, zero unless exceeded
	Ratio     float64 // spent / cap clamped to [0, 1]
}

// MonthlyBreakdown is the month-to-date view over all categories.
type MonthlyBreakdown struct {
	Year       int
	Month      int // 1-12
	Categories []CategoryStatus
	TotalSpent Money
	TotalCap   Money
	Threshold  Money   // reference amount for the total bar
	TotalRatio float64 // TotalSpent / Threshold clamped to [0, 1]
}

// Alerts returns the rows that carry an alert (Exceeded or a fired LowRemaining).
func (b MonthlyBreakdown) Alerts() []CategoryStatus {
	var out []CategoryStatus
	for _, cs := range b.Categories {
		if cs.State == Exceeded || cs.State == LowRemaining {
			out = append(out, cs)
		}
	}
	return out
}

// Period returns the first day of the breakdown month.
func (b MonthlyBreakdown) Period() time.Time {
	return time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC)
}
