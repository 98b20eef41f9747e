package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"

	"github.com/Readm/cluster_map/visual"
)

const frameWriteWait = 5 * time.Second

type wsHub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	onCount   func(int)
}

func newHub(onCount func(int)) *wsHub {
	if onCount == nil {
		onCount = func(int) {}
	}
	return &wsHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 16),
		onCount:   onCount,
	}
}

// run owns the client set and is the only writer to registered connections.
func (h *wsHub) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			var result *multierror.Error
			for conn := range h.clients {
				if err := conn.Close(); err != nil {
					result = multierror.Append(result, err)
				}
				delete(h.clients, conn)
			}
			h.onCount(0)
			if err := result.ErrorOrNil(); err != nil {
				GetLogger().WithError(err).Debug("closing frame clients")
			}
			return nil
		case conn := <-h.register:
			h.clients[conn] = true
			h.onCount(len(h.clients))
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
				h.onCount(len(h.clients))
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(frameWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					GetLogger().WithError(err).Warn("failed to send frame to websocket client")
					delete(h.clients, conn)
					_ = conn.Close()
				}
			}
			h.onCount(len(h.clients))
		}
	}
}

// handle upgrades a browser connection, sends the latest frame and subscribes it to pushes.
func (h *wsHub) handle(ctx context.Context, latest *visual.Frame, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		GetLogger().WithError(err).Error("websocket upgrade failed")
		return
	}

	if latest != nil {
		if data, err := json.Marshal(latest); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}

	select {
	case h.register <- conn:
	case <-ctx.Done():
		_ = conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-ctx.Done():
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					GetLogger().WithError(err).Warn("websocket error")
				}
				return
			}
		}
	}()
}

// broadcastFrame queues a frame for every client, dropping it when the hub is behind.
func (h *wsHub) broadcastFrame(frame *visual.Frame) {
	if frame == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		GetLogger().WithError(err).Error("failed to marshal frame for websocket")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		GetLogger().Debug("frame hub busy, dropping frame")
	}
}
