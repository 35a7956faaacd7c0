package websocket

import (
	"log"
	"net/http"
	"strings"

	"soundrise/internal/util"

	"github.com/gorilla/websocket"
)

// ServeWS authenticates the caller and upgrades the connection into a hub
// client. The token rides in the `token` query parameter (browsers cannot set
// headers on websocket upgrades) with an Authorization Bearer fallback for
// non-browser clients. Room membership is negotiated after the upgrade via
// join/leave messages.
func ServeWS(hub *Hub, jwtSecret, clientURL string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(clientURL),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			http.Error(w, "Authorization token required", http.StatusUnauthorized)
			return
		}

		claims, err := util.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(hub, conn, claims.UserID)
		client.hub.register <- client

		go client.Start()
	}
}

// originChecker accepts the configured client origin and local development
// hosts. Requests without an Origin header (native apps, curl) pass; the JWT
// check still gates them.
func originChecker(clientURL string) func(r *http.Request) bool {
	allowed := map[string]bool{
		clientURL:               true,
		"http://localhost:3000": true,
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return allowed[origin]
	}
}
