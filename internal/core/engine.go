package core

import (
	"sort"
	"time"
)

// FilterMonth returns the entries dated in the same calendar month and year as ref,
// in their original order.
func FilterMonth(entries []Entry, ref time.Time) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.SameMonth(ref) {
			out = append(out, e)
		}
	}
	return out
}

// AggregateByCategory sums entry amounts per category.
func AggregateByCategory(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		if e.Category.Valid() {
			t[e.Category] = t[e.Category].Add(e.Amount)
		}
	}
	return t
}

// IsLowRemaining reports whether the remaining budget is positive and at most
// 10% of cap. For whole cents remaining*10 <= cap equals remaining <= cap/10.
func IsLowRemaining(spent, cap Money) bool {
	if cap.Cents <= 0 || spent.Cents < 0 || spent.Cents > cap.Cents {
		return false
	}
	remaining := cap.Cents - spent.Cents
	return remaining > 0 && remaining <= cap.Cents/10
}

// Classify picks the alert state for a category. fired must be the result of the
// ledger's TryNotify for this month and category, consulted only when IsLowRemaining
// holds. A low-remaining condition that was already notified yields NoActivity:
// nothing is reported for it again.
func Classify(spent, cap Money, fired bool) AlertState {
	switch {
	case spent.Cents > cap.Cents:
		return Exceeded
	case IsLowRemaining(spent, cap):
		if fired {
			return LowRemaining
		}
		return NoActivity
	case spent.Cents > 0:
		return Healthy
	default:
		return NoActivity
	}
}

// ProgressRatio returns spent/cap clamped to [0, 1], or 0 when cap is not positive.
func ProgressRatio(spent, cap Money) float64 {
	if cap.Cents <= 0 {
		return 0
	}
	r := float64(spent.Cents) / float64(cap.Cents)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// SortByDateDesc orders entries newest first. Entries on the same date keep
// their relative order.
func SortByDateDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date.Time)
	})
}

// Evaluate computes the monthly breakdown for ref. tryNotify is called once per
// category whose remaining budget is low, and must atomically record the key.
func Evaluate(entries []Entry, caps CapTable, ref time.Time, threshold Money, tryNotify func(NotificationKey) bool) MonthlyBreakdown {
	totals := AggregateByCategory(FilterMonth(entries, ref))

	b := MonthlyBreakdown{
		Year:       ref.Year(),
		Month:      int(ref.Month()),
		Categories: make([]CategoryStatus, 0, numCategories),
		TotalSpent: totals.Sum(),
		TotalCap:   caps.Sum(),
		Threshold:  threshold,
		TotalRatio: ProgressRatio(totals.Sum(), threshold),
	}

	for _, c := range Categories() {
		spent, cap := totals.Get(c), caps.Get(c)
		fired := false
		if IsLowRemaining(spent, cap) && tryNotify != nil {
			fired = tryNotify(KeyFor(ref, c))
		}

		cs := CategoryStatus{
			Category: c,
			Spent:    spent,
			Cap:      cap,
			State:    Classify(spent, cap, fired),
			Ratio:    ProgressRatio(spent, cap),
		}
		if spent.Cents > cap.Cents {
			cs.Overage = Money{Cents: spent.Cents - cap.Cents}
		} else {
			cs.Remaining = Money{Cents: cap.Cents - spent.Cents}
		}
		b.Categories = append(b.Categories, cs)
	}
	return b
}
