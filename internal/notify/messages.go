// Package notify publishes and consumes data-change notifications over AMQP.
// Consumers use them to drop cached snapshots for the affected user.
package notify

import (
	"encoding/json"
	"time"
)

// Tables that emit change notifications.
const (
	TableTransactions = "transactions"
	TableCategories   = "categories"
	TableUsers        = "users"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeMessage is a lightweight notification that a user's data changed.
// It carries no row payload; consumers reload from the database.
type ChangeMessage struct {
	Table     string    `json:"table"`
	UserID    int64     `json:"user_id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(table string, userID int64, op string) *ChangeMessage {
	return &ChangeMessage{
		Table:     table,
		UserID:    userID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
