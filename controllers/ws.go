package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is already wide open for this API; match it here.
		return true
	},
}

// CartStream upgrades to a websocket and pushes the cart state stream to
// the client: the current state immediately, then every change until the
// connection drops.
func CartStream(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Printf("ws: upgrade failed for %s: %v", user.ID, err)
		return
	}
	defer conn.Close()

	// The subscription is scoped to the connection: when the socket dies
	// the read pump cancels ctx, which tears the subscription down.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates := carts.Subscribe(ctx, user.ID)

	// Drain client frames so pings and close messages are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for state := range updates {
		if err := conn.WriteJSON(map[string]interface{}{
			"type":   "cart",
			"userId": user.ID,
			"data":   state,
		}); err != nil {
			log.Printf("ws: dropping cart stream for %s: %v", user.ID, err)
			return
		}
	}
}
