package amqp

import (
	"encoding/json"
	"time"
)

// ForecastRequestMessage asks the worker to recalculate one budget over a
// date range. It carries only identifiers; the worker loads the budget,
// remains and operations from the database.
type ForecastRequestMessage struct {
	BudgetID  string    `json:"budget_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// NewForecastRequestMessage creates a forecast request for [from, to],
// dates in ISO form.
func NewForecastRequestMessage(budgetID, from, to string) *ForecastRequestMessage {
	return &ForecastRequestMessage{
		BudgetID:  budgetID,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ForecastRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ForecastRequestMessageFromJSON(data []byte) (*ForecastRequestMessage, error) {
	var msg ForecastRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
