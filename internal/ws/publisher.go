package ws

import (
	"context"

	"certchain/internal/model"
)

// EventStore reads the journaled tx event log
type EventStore interface {
	EventsAfter(ctx context.Context, lastEventID int64, limit int) ([]model.TxEvent, error)
	LatestEventID(ctx context.Context) (int64, error)
}

// PublishTxEvent broadcasts a committed journal event as tx:status
func PublishTxEvent(event *model.TxEvent) {
	BroadcastToAll("tx:status", event)
	logger.Debugf("Event broadcasted: eventId=%d, op=%s, stage=%s", event.ID, event.OperationID, event.Stage)
}

// PublishWalletStatus broadcasts the current wallet session status
func PublishWalletStatus(status interface{}) {
	BroadcastToAll("wallet:status", status)
}
