package ws

import (
	"context"
	"time"

	socketio "github.com/googollee/go-socket.io"
)

// maxReplay bounds an incremental replay; larger gaps get tx:reset
const maxReplay = 500

// handleRequestTxEvents handles request:tx-events {lastEventId}
func handleRequestTxEvents(s socketio.Conn, data interface{}) {
	lastEventID := parseLastEventID(data)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	event, payload := replay(ctx, store, lastEventID)
	s.Emit(event, payload)
}

func parseLastEventID(data interface{}) int64 {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := dataMap["lastEventId"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// replay decides what a reconnecting client receives: the missed events when
// there are fewer than maxReplay, else a reset carrying the latest event id.
func replay(ctx context.Context, events EventStore, lastEventID int64) (string, map[string]interface{}) {
	if events == nil {
		return "error", map[string]interface{}{"message": "event log unavailable"}
	}

	latest, err := events.LatestEventID(ctx)
	if err != nil {
		logger.Warnf("Failed to query latest event: %v", err)
		return "error", map[string]interface{}{"message": "Failed to query events"}
	}

	// A fresh client has nothing to catch up on
	if lastEventID <= 0 {
		return "tx:reset", map[string]interface{}{"lastEventId": latest}
	}

	missed, err := events.EventsAfter(ctx, lastEventID, maxReplay)
	if err != nil {
		logger.Warnf("Failed to query incremental events: %v", err)
		return "error", map[string]interface{}{"message": "Failed to query events"}
	}
	if len(missed) >= maxReplay {
		logger.Infof("Too many incremental events (%d), sending reset", len(missed))
		return "tx:reset", map[string]interface{}{"lastEventId": latest}
	}

	next := lastEventID
	if len(missed) > 0 {
		next = missed[len(missed)-1].ID
	}
	return "tx:events", map[string]interface{}{
		"events":      missed,
		"lastEventId": next,
	}
}
