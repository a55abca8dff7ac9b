package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpenseSyncMessage asks the mirror worker to copy one expense to the
// spreadsheet. The worker loads everything else from the database.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, accountID, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		AccountID: accountID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseSyncMessageFromJSON decodes and validates a message body.
func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid expense id %d", msg.ID)
	}
	return &msg, nil
}
