package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// EventType names a ledger change.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventTransferCreated    EventType = "transfer.created"
	EventGoalContributed    EventType = "goal.contributed"
	EventRecurringProcessed EventType = "recurring.processed"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted,
		EventTransferCreated, EventGoalContributed, EventRecurringProcessed:
		return true
	}
	return false
}

// LedgerEvent is published after a ledger mutation commits.
// Amount is a fixed two-decimal string so consumers never go through floats.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	EntityID  int64     `json:"entity_id"`
	AccountID *int64    `json:"account_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(t EventType, entityID int64) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) WithAccount(id *int64) *LedgerEvent {
	if id != nil {
		v := *id
		e.AccountID = &v
	}
	return e
}

func (e *LedgerEvent) WithAmount(d decimal.Decimal) *LedgerEvent {
	e.Amount = d.StringFixed(2)
	return e
}

func (e *LedgerEvent) WithDate(d core.Date) *LedgerEvent {
	e.Date = d.String()
	return e
}

func (e *LedgerEvent) WithCount(n int) *LedgerEvent {
	e.Count = n
	return e
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
