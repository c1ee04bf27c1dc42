package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageVersion is the schema version written into every sync message.
const MessageVersion int64 = 1

// TransactionSyncMessage asks the sync worker to export one transaction.
// It carries only identifiers; the worker reads the transaction from the
// database.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(ownerID, id string) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		OwnerID:   ownerID,
		Version:   MessageVersion,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes a message and rejects it when the
// transaction id is missing.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("sync message without transaction id")
	}
	return &msg, nil
}
