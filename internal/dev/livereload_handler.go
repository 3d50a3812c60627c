package dev

import (
	"net/http"

	"github.com/gorilla/websocket"
)

const liveReloadPath = "/__inkwell/livereload"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func liveReloadHandler(manager *ClientManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an error
			return
		}
		defer conn.Close()

		client := &Client{id: r.RemoteAddr, notify: make(chan RefreshPayload, 1)}
		if !manager.add(client) {
			return
		}
		defer manager.remove(client)

		// the browser never sends anything, reading only detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case m, ok := <-client.notify:
				if !ok {
					return
				}
				if err := conn.WriteJSON(m); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}
