package events

import "time"

// TransferCompleted is emitted after the atomic unit commits. Failed or
// rejected transfers never produce an event.
type TransferCompleted struct {
	EntryID     string    `json:"entry_id"`
	Reference   string    `json:"reference"`
	FromAccount string    `json:"from_account"`
	ToAccount   string    `json:"to_account"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(event TransferCompleted) error
}

// NoopPublisher stands in when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() NoopPublisher {
	return NoopPublisher{}
}

func (NoopPublisher) Publish(TransferCompleted) error {
	return nil
}
