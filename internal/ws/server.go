package ws

import (
	"net/http"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/sirupsen/logrus"
)

var (
	// Server is the global Socket.IO server instance
	Server *socketio.Server

	store  EventStore
	logger = logrus.WithField("component", "ws")
)

// InitServer initializes the Socket.IO server. events backs tx:events replay.
func InitServer(events EventStore, log *logrus.Entry) error {
	if log != nil {
		logger = log.WithField("component", "ws")
	}
	store = events

	allowAll := func(r *http.Request) bool { return true }
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: allowAll},
			&websocket.Transport{CheckOrigin: allowAll},
		},
	})

	// JWT is checked by WrapWithAuth before the handshake reaches here
	server.OnConnect("/", func(s socketio.Conn) error {
		logger.Debugf("Client connected: %s", s.ID())
		s.Emit("connected", map[string]interface{}{"ok": true})
		return nil
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		logger.Debugf("Client disconnected: %s, reason: %s", s.ID(), reason)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		if s != nil {
			logger.Warnf("Error for client %s: %v", s.ID(), e)
			return
		}
		logger.Warnf("Socket.IO error: %v", e)
	})

	server.OnEvent("/", "request:tx-events", handleRequestTxEvents)

	go func() {
		if err := server.Serve(); err != nil {
			logger.Errorf("Server stopped: %v", err)
		}
	}()

	Server = server
	logger.Info("Socket.IO server initialized")
	return nil
}

// Close stops the Socket.IO server
func Close() error {
	if Server != nil {
		return Server.Close()
	}
	return nil
}

// BroadcastToAll broadcasts a message to all connected clients
func BroadcastToAll(event string, data interface{}) {
	if Server == nil {
		logger.Debugf("Dropped %s: server not initialized", event)
		return
	}
	Server.BroadcastToNamespace("/", event, data)
}
