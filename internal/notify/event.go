package notify

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated = "order.created"
	TypeOrderUpdated = "order.updated"
)

// OrderEvent is the payload published for every order creation and
// status change.
type OrderEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	OrderID    int64     `json:"order_id"`
	State      string    `json:"state"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewOrderEvent(typ string, userID, orderID int64, state string) OrderEvent {
	return OrderEvent{
		EventID:    uuid.New(),
		Type:       typ,
		UserID:     userID,
		OrderID:    orderID,
		State:      state,
		OccurredAt: time.Now().UTC(),
	}
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusDead    Status = "dead"
)

// Entry is one outbox row.
type Entry struct {
	ID        uuid.UUID
	Topic     string
	Key       string
	Payload   []byte
	Status    Status
	Attempts  int
	LastError string
	NextAt    time.Time
	CreatedAt time.Time
	SentAt    *time.Time
}
