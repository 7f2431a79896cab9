package ws

import (
	"net/http"
	"strings"

	socketio "github.com/googollee/go-socket.io"

	"certchain/internal/auth"
)

// extractToken reads the JWT from the token query parameter, then the
// Authorization header. Socket.IO clients send io(url, {auth: {token}})
// as ?token=... on the handshake.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

// WrapWithAuth wraps the Socket.IO server with JWT authentication on the handshake
func WrapWithAuth(server *socketio.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handshake is GET /socket.io/?EIO=4&transport=polling
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/socket.io/") {
			token := extractToken(r)
			if token == "" {
				logger.Warnf("Handshake rejected: no token from %s", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				logger.Warnf("Handshake rejected: invalid token from %s: %v", r.RemoteAddr, err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			logger.Debugf("Handshake accepted: user=%s (ID=%d)", claims.Username, claims.UID)
		}

		server.ServeHTTP(w, r)
	})
}
