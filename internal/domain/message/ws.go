package message

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientEvent is what a websocket client may send
type clientEvent struct {
	Type       string    `json:"type"`
	HandoverID uuid.UUID `json:"handover_id"`
}

// WebSocket upgrades an authenticated request and registers the connection
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Connection{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

// handleClientEvent applies one client frame and returns the reply for this connection
func (h *Handler) handleClientEvent(ctx context.Context, client *Connection, event clientEvent) *WSEvent {
	switch event.Type {
	case "subscribe":
		if err := h.service.CanSubscribe(ctx, client.UserID, event.HandoverID); err != nil {
			return &WSEvent{Type: EventError, HandoverID: event.HandoverID, Error: err.Error()}
		}
		h.hub.SubscribeToRoom(event.HandoverID, client.UserID)
		return &WSEvent{Type: EventSubscribed, HandoverID: event.HandoverID}
	case "unsubscribe":
		h.hub.UnsubscribeFromRoom(event.HandoverID, client.UserID)
		return nil
	case "read":
		if _, err := h.service.MarkAllRead(ctx, client.UserID, event.HandoverID); err != nil {
			return &WSEvent{Type: EventError, HandoverID: event.HandoverID, Error: err.Error()}
		}
		return nil
	default:
		return &WSEvent{Type: EventError, Error: "unknown event type"}
	}
}

func (h *Handler) reply(client *Connection, event *WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.hub.deliver(client, data)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("WebSocket read error")
			}
			break
		}

		ctx := context.Background()
		if h.limiter != nil && !h.limiter.Allow(ctx, "ws:"+client.UserID.String()) {
			continue
		}

		var event clientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		if out := h.handleClientEvent(ctx, client, event); out != nil {
			h.reply(client, out)
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
