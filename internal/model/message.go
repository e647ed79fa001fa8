// internal/model/message.go
package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message is a customer transaction record. Date is stamped by the server
// at insert time and never crosses the wire.
type Message struct {
	CustomerID int       `json:"customerid" db:"customerid"`
	Type       string    `json:"type" db:"type"`
	Amount     Amount    `json:"amount" db:"amount"`
	UUID       uuid.UUID `json:"uuid" db:"uuid"`
	Date       time.Time `json:"-" db:"date"`
}

// Validate checks the caller-supplied fields. Amount precision is enforced
// while decoding, so only identity fields are checked here.
func (m *Message) Validate() error {
	if m.UUID == uuid.Nil {
		return errors.New("uuid is required")
	}
	if m.Type == "" {
		return errors.New("type is required")
	}
	return nil
}
