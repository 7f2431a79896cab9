package model

import (
	"gorm.io/datatypes"
)

// TxRecord is the journal row of one pipeline run
type TxRecord struct {
	BaseModel
	OperationID string         `gorm:"column:operation_id;type:varchar(36);uniqueIndex;not null" json:"operationId"`
	Kind        string         `gorm:"column:kind;type:varchar(32);index;not null" json:"kind"`
	Subject     string         `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Account     string         `gorm:"column:account;type:varchar(42)" json:"account"`
	Operator    string         `gorm:"column:operator;type:varchar(64);index" json:"operator"`
	Status      string         `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	GasLimit    uint64         `gorm:"column:gas_limit" json:"gasLimit"`
	GasFallback bool           `gorm:"column:gas_fallback" json:"gasFallback"`
	TxHash      string         `gorm:"column:tx_hash;type:varchar(66);index" json:"txHash"`
	ReceiptHash string         `gorm:"column:receipt_hash;type:varchar(66)" json:"receiptHash"`
	BlockNumber uint64         `gorm:"column:block_number" json:"blockNumber"`
	Message     string         `gorm:"column:message;type:varchar(512)" json:"message"`
	LastError   *string        `gorm:"column:last_error;type:varchar(1024)" json:"lastError"`
	Stages      datatypes.JSON `gorm:"column:stages;type:json" json:"stages"`
}

// TableName specifies the table name for TxRecord model
func (TxRecord) TableName() string {
	return "tx_records"
}
