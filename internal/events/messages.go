package events

import (
	"encoding/json"
	"fmt"
	"time"

	"duit/internal/core"
)

const (
	TransactionAdded   Kind = "transaction.added"
	TransactionUpdated Kind = "transaction.updated"
	TransactionRemoved Kind = "transaction.removed"
)

type (
	Kind string

	// Message describes one ledger mutation. Added and updated carry
	// the full record; removed carries only the id.
	Message struct {
		Kind        Kind              `json:"kind"`
		ID          string            `json:"id"`
		Transaction *core.Transaction `json:"transaction,omitempty"`
		Timestamp   time.Time         `json:"timestamp"`
	}
)

func NewAdded(tx core.Transaction) Message {
	return Message{Kind: TransactionAdded, ID: tx.ID, Transaction: &tx, Timestamp: time.Now()}
}

func NewUpdated(tx core.Transaction) Message {
	return Message{Kind: TransactionUpdated, ID: tx.ID, Transaction: &tx, Timestamp: time.Now()}
}

func NewRemoved(id string) Message {
	return Message{Kind: TransactionRemoved, ID: id, Timestamp: time.Now()}
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode event message: %w", err)
	}
	switch m.Kind {
	case TransactionAdded, TransactionUpdated:
		if m.Transaction == nil {
			return Message{}, fmt.Errorf("%s message without transaction payload", m.Kind)
		}
	case TransactionRemoved:
	default:
		return Message{}, fmt.Errorf("unknown event kind %q", m.Kind)
	}
	return m, nil
}
