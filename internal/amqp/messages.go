package amqp

import (
	"encoding/json"
	"time"
)

const (
	VerbInsert = "insert"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// LedgerEventMessage is the lightweight event published after a successful
// ledger mutation. It carries identifiers only; consumers fetch the full
// records from the store, so a stale message can never overwrite newer
// data.
type LedgerEventMessage struct {
	WorkspaceID string    `json:"workspace_id"`
	Kind        string    `json:"kind"` // transaction | account | member | category
	Verb        string    `json:"verb"` // insert | update | delete
	IDs         []string  `json:"ids"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(workspaceID, kind, verb string, ids []string) *LedgerEventMessage {
	return &LedgerEventMessage{
		WorkspaceID: workspaceID,
		Kind:        kind,
		Verb:        verb,
		IDs:         ids,
		Timestamp:   time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
