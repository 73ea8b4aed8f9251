package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published on the ledger channel.
const (
	EventPaymentCreated      = "payment.created"
	EventPaymentUpdated      = "payment.updated"
	EventPaymentDeleted      = "payment.deleted"
	EventPaymentCleared      = "payment.cleared"
	EventPaymentMaterialized = "payment.materialized"
	EventCategoryDeleted     = "category.deleted"
	EventAccountReconciled   = "account.reconciled"

	// EventIntegrityWarning is the observable diagnostic channel for
	// referential-integrity hazards the domain tolerated instead of
	// failing on.
	EventIntegrityWarning = "diagnostic.integrity_warning"
)

// LedgerEvent is the single message shape on the ledger exchange.
// EntityID is the identifier of the payment, category or account the
// event concerns.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EntityID   int64     `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewLedgerEvent(eventType string, entityID int64, detail string) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
