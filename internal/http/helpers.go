package http

import (
	"html/template"
	"strings"
	"time"

	"budgetbuddy/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// tierClass maps an alert state to the CSS class of its message.
func tierClass(state core.AlertState) string {
	switch state {
	case core.Exceeded:
		return "error"
	case core.LowRemaining:
		return "warning"
	case core.Healthy:
		return "success"
	default:
		return ""
	}
}

// percent converts a clamped ratio to a whole percentage for progress bars.
func percent(ratio float64) int {
	return int(ratio*100 + 0.5)
}

func templateFuncs(symbol string) template.FuncMap {
	return template.FuncMap{
		"money":   func(m core.Money) string { return m.Format(symbol) },
		"percent": percent,
		"tier":    tierClass,
		"date":    func(d core.Date) string { return d.Format("02 Jan 2006") },
		"isoDate": func(t time.Time) string { return t.Format("2006-01-02") },
	}
}
