package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EntriesChangedMessage announces that the ledger changed. It carries no entry
// data; consumers read the current snapshot from the configured persister.
type EntriesChangedMessage struct {
	Operation string    `json:"operation"`
	EntryID   string    `json:"entryId,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Added     int       `json:"added,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	Removed   int       `json:"removed,omitempty"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntriesChangedMessage stamps a message for an operation on a ledger now holding total entries.
func NewEntriesChangedMessage(operation string, total int) *EntriesChangedMessage {
	return &EntriesChangedMessage{
		Operation: operation,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
}

func (m *EntriesChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntriesChangedMessageFromJSON decodes a message and rejects ones without an operation.
func EntriesChangedMessageFromJSON(data []byte) (*EntriesChangedMessage, error) {
	var msg EntriesChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Operation == "" {
		return nil, errors.New("entries changed message without operation")
	}
	return &msg, nil
}
