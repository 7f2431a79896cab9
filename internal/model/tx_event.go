package model

import (
	"time"
)

// TxEvent is an append-only pipeline status event. Its ID orders the
// socket.io replay stream.
type TxEvent struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"eventId"`
	OperationID string    `gorm:"column:operation_id;type:varchar(36);index;not null" json:"operationId"`
	Kind        string    `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Subject     string    `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Stage       string    `gorm:"column:stage;type:varchar(32);not null" json:"stage"`
	Status      string    `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Level       string    `gorm:"column:level;type:varchar(16);not null" json:"level"`
	Message     string    `gorm:"column:message;type:varchar(512)" json:"message"`
	TxHash      string    `gorm:"column:tx_hash;type:varchar(66)" json:"txHash,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for TxEvent model
func (TxEvent) TableName() string {
	return "tx_events"
}
