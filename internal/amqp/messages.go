package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry event actions carried on the export queue.
const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// EntryEventMessage is the lightweight message the export worker consumes.
// It carries only the entry id and the action; the worker fetches the full
// entry from the database, so stale messages are harmless.
type EntryEventMessage struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEventMessage(id uuid.UUID, action string) *EntryEventMessage {
	return &EntryEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *EntryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventMessageFromJSON(data []byte) (*EntryEventMessage, error) {
	var msg EntryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action != ActionSync && msg.Action != ActionDelete {
		return nil, fmt.Errorf("unknown entry event action %q", msg.Action)
	}
	return &msg, nil
}
