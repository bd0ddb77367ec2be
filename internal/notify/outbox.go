package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Outbox records order events in the caller's transaction for the relay
// to publish later.
type Outbox interface {
	Enqueue(ctx context.Context, ev OrderEvent) error
	WithTx(tx *sql.Tx) Outbox
}

type outbox struct {
	repo  Repository
	topic string
}

func NewOutbox(repo Repository, topic string) Outbox {
	return &outbox{repo: repo, topic: topic}
}

func (o *outbox) WithTx(tx *sql.Tx) Outbox {
	return &outbox{repo: o.repo.WithTx(tx), topic: o.topic}
}

func (o *outbox) Enqueue(ctx context.Context, ev OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	id := ev.EventID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return o.repo.Insert(ctx, Entry{
		ID:      id,
		Topic:   o.topic,
		Key:     strconv.FormatInt(ev.OrderID, 10),
		Payload: payload,
		Status:  StatusPending,
	})
}
