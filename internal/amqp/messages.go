package amqp

import (
	"encoding/json"
	"time"

	"budgetbuddy/internal/core"
)

// BudgetAlertMessage describes one alert produced by a monthly evaluation.
type BudgetAlertMessage struct {
	SessionID   string    `json:"session_id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Category    string    `json:"category"`
	State       string    `json:"state"`
	SpentCents  int64     `json:"spent_cents"`
	CapCents    int64     `json:"cap_cents"`
	AmountCents int64     `json:"amount_cents"` // overage when exceeded, remaining otherwise
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage builds the message for a category status of a breakdown.
func NewBudgetAlertMessage(sessionID string, year, month int, cs core.CategoryStatus, text string) *BudgetAlertMessage {
	amount := cs.Remaining.Cents
	if cs.State == core.Exceeded {
		amount = cs.Overage.Cents
	}
	return &BudgetAlertMessage{
		SessionID:   sessionID,
		Year:        year,
		Month:       month,
		Category:    cs.Category.String(),
		State:       cs.State.String(),
		SpentCents:  cs.Spent.Cents,
		CapCents:    cs.Cap.Cents,
		AmountCents: amount,
		Message:     text,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
