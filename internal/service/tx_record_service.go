package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"certchain/internal/chain"
	"certchain/internal/model"
	"certchain/internal/txpipeline"
)

// ErrTxNotFound is returned when no journal row matches an operation ID
var ErrTxNotFound = errors.New("transaction not found")

// EventPublisher receives every journaled event after it is committed
type EventPublisher func(event *model.TxEvent)

// TxRecordService journals pipeline runs and their status events
type TxRecordService struct {
	db      *gorm.DB
	publish EventPublisher
	logger  *logrus.Entry
}

// NewTxRecordService creates the journal service. publish may be nil.
func NewTxRecordService(db *gorm.DB, publish EventPublisher, logger *logrus.Entry) *TxRecordService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TxRecordService{
		db:      db,
		publish: publish,
		logger:  logger.WithField("component", "tx-journal"),
	}
}

// Reporter returns a pipeline reporter that journals events on behalf of operator.
// Journal failures are logged and never interrupt the run.
func (s *TxRecordService) Reporter(operator string) txpipeline.Reporter {
	return txpipeline.ReporterFunc(func(ev txpipeline.StatusEvent) {
		if err := s.Record(context.Background(), operator, ev); err != nil {
			s.logger.WithError(err).WithField("op", ev.OperationID).Warn("Failed to journal status event")
		}
	})
}

// Record folds ev into its run's journal row and appends it to the event log
func (s *TxRecordService) Record(ctx context.Context, operator string, ev txpipeline.StatusEvent) error {
	event := EventFromStatus(ev)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.TxRecord
		err := tx.Where("operation_id = ?", ev.OperationID).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = model.TxRecord{
				OperationID: ev.OperationID,
				Kind:        string(ev.Kind),
				Operator:    operator,
			}
		case err != nil:
			return fmt.Errorf("failed to query tx record: %w", err)
		}

		if err := ApplyEvent(&rec, ev); err != nil {
			return err
		}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to save tx record: %w", err)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to write tx event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.publish != nil {
		s.publish(event)
	}
	return nil
}

// Complete stores the final receipt and error of a finished run
func (s *TxRecordService) Complete(ctx context.Context, out *txpipeline.Outcome) error {
	updates := map[string]interface{}{
		"status": string(out.Status),
	}
	if out.ReceiptHash != (common.Hash{}) {
		updates["receipt_hash"] = out.ReceiptHash.Hex()
	}
	if out.Err != nil {
		updates["last_error"] = truncate(out.Err.Error(), 1024)
	}

	err := s.db.WithContext(ctx).
		Model(&model.TxRecord{}).
		Where("operation_id = ?", out.OperationID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to complete tx record: %w", err)
	}
	return nil
}

// EventFromStatus converts a pipeline status event into its journal row
func EventFromStatus(ev txpipeline.StatusEvent) *model.TxEvent {
	return &model.TxEvent{
		OperationID: ev.OperationID,
		Kind:        string(ev.Kind),
		Subject:     ev.Subject,
		Stage:       string(ev.Stage),
		Status:      string(ev.Status),
		Level:       ev.Level,
		Message:     truncate(ev.Message, 512),
		TxHash:      ev.TxHash,
	}
}

// ApplyEvent folds a status event into a journal row. Stages only grow.
func ApplyEvent(rec *model.TxRecord, ev txpipeline.StatusEvent) error {
	rec.Status = string(ev.Status)
	rec.Message = truncate(ev.Message, 512)
	if ev.Subject != "" {
		rec.Subject = ev.Subject
	}
	if ev.Account != (common.Address{}) {
		rec.Account = ev.Account.Hex()
	}
	if ev.GasLimit > 0 {
		rec.GasLimit = ev.GasLimit
	}
	if ev.GasFallback {
		rec.GasFallback = true
	}
	if ev.TxHash != "" {
		rec.TxHash = ev.TxHash
	}
	if ev.BlockNumber > 0 {
		rec.BlockNumber = ev.BlockNumber
	}
	if ev.Level == chain.LevelError {
		msg := truncate(ev.Message, 1024)
		rec.LastError = &msg
	}

	var stages []txpipeline.StageRecord
	if len(rec.Stages) > 0 {
		if err := json.Unmarshal(rec.Stages, &stages); err != nil {
			return fmt.Errorf("failed to decode stages: %w", err)
		}
	}
	stages = append(stages, txpipeline.StageRecord{
		Stage:   ev.Stage,
		Level:   ev.Level,
		Message: ev.Message,
		At:      ev.At,
	})
	data, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("failed to encode stages: %w", err)
	}
	rec.Stages = datatypes.JSON(data)
	return nil
}

// TxFilter selects journal rows
type TxFilter struct {
	Kind     string
	Status   string
	Operator string
	Page     int
	PageSize int
}

// Normalize applies paging defaults and bounds
func (f *TxFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// List returns journal rows newest first
func (s *TxRecordService) List(ctx context.Context, f TxFilter) ([]model.TxRecord, int64, error) {
	f.Normalize()

	query := s.db.WithContext(ctx).Model(&model.TxRecord{})
	if f.Kind != "" {
		query = query.Where("kind = ?", f.Kind)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Operator != "" {
		query = query.Where("operator = ?", f.Operator)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tx records: %w", err)
	}

	var records []model.TxRecord
	err := query.Order("id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tx records: %w", err)
	}
	return records, total, nil
}

// Get returns the journal row of one operation
func (s *TxRecordService) Get(ctx context.Context, operationID string) (*model.TxRecord, error) {
	var rec model.TxRecord
	err := s.db.WithContext(ctx).Where("operation_id = ?", operationID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tx record: %w", err)
	}
	return &rec, nil
}

// EventsAfter returns up to limit events with id > lastEventID, oldest first
func (s *TxRecordService) EventsAfter(ctx context.Context, lastEventID int64, limit int) ([]model.TxEvent, error) {
	var events []model.TxEvent
	err := s.db.WithContext(ctx).
		Where("id > ?", lastEventID).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query incremental events: %w", err)
	}
	return events, nil
}

// LatestEventID returns the newest event id, or 0 when the log is empty
func (s *TxRecordService) LatestEventID(ctx context.Context) (int64, error) {
	var event model.TxEvent
	err := s.db.WithContext(ctx).Order("id DESC").Limit(1).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest event: %w", err)
	}
	return event.ID, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
