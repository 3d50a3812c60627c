package dev

import (
	"context"
	"sync/atomic"
	"time"
)

type ChangeType string

const (
	ChangeTypeReload     ChangeType = "reload"
	ChangeTypeRebuilding ChangeType = "rebuilding"
	ChangeTypeFailed     ChangeType = "failed"
)

type RefreshPayload struct {
	ChangeType ChangeType `json:"changeType"`
	Message    string     `json:"message,omitempty"`
	At         time.Time  `json:"at"`
}

// Client represents a single live reload connection
type Client struct {
	id     string
	notify chan RefreshPayload
}

// ClientManager manages all live reload clients
type ClientManager struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan RefreshPayload
	done       chan struct{}
	count      atomic.Int64
}

func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan RefreshPayload, 8),
		done:       make(chan struct{}),
	}
}

// start handles clients and broadcasting until ctx is done. On exit every
// client's notify channel is closed.
func (manager *ClientManager) start(ctx context.Context) {
	defer func() {
		for client := range manager.clients {
			close(client.notify)
		}
		manager.clients = nil
		manager.count.Store(0)
		close(manager.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-manager.register:
			manager.clients[client] = true
			manager.count.Add(1)
		case client := <-manager.unregister:
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				close(client.notify)
				manager.count.Add(-1)
			}
		case msg := <-manager.broadcast:
			for client := range manager.clients {
				// a slow client already has a pending message
				select {
				case client.notify <- msg:
				default:
				}
			}
		}
	}
}

func (manager *ClientManager) add(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *ClientManager) remove(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// Broadcast sends p to every connected client. It never blocks once the
// manager has stopped.
func (manager *ClientManager) Broadcast(p RefreshPayload) {
	if p.At.IsZero() {
		p.At = time.Now()
	}
	select {
	case manager.broadcast <- p:
	case <-manager.done:
	}
}

func (manager *ClientManager) clientCount() int {
	return int(manager.count.Load())
}
