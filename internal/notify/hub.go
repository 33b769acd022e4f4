package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type EventType string

const (
	EventTakeoverRequested EventType = "takeover_requested"
	EventTakeoverApproved  EventType = "takeover_approved"
	EventTakeoverDeclined  EventType = "takeover_declined"
	EventLiveChanged       EventType = "live_changed"
)

// Event is the websocket envelope.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type approvedPayload struct {
	Request     *model.TakeoverRequest    `json:"request"`
	Credentials model.PlaybackCredentials `json:"credentials"`
}

// Hub keeps the open dashboard connections, several per DJ.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type client struct {
	djID string
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.djID] == nil {
		h.conns[c.djID] = make(map[*client]struct{})
	}
	h.conns[c.djID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.djID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.conns, c.djID)
		}
	}
}

// Connected returns the number of open connections for djID.
func (h *Hub) Connected(djID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[djID])
}

// Serve upgrades the request and streams events for djID until the peer goes away.
// Authentication happens before this is called.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, djID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{djID: djID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	h.logger.Debug("Dashboard connected", zap.String("dj_id", djID))

	go h.writePump(ws, c)
	h.readPump(ws, c)
}

func (h *Hub) readPump(ws *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket closed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(ws *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendTo queues ev for djID, or for everyone when djID is empty.
// Slow consumers lose messages instead of blocking the caller.
func (h *Hub) sendTo(djID string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, set := range h.conns {
		if djID != "" && id != djID {
			continue
		}
		for c := range set {
			select {
			case c.send <- data:
			default:
			}
		}
	}
	return nil
}

func (h *Hub) TakeoverRequested(_ context.Context, req *model.TakeoverRequest) error {
	return h.sendTo(req.TargetDJID, Event{Type: EventTakeoverRequested, Payload: req})
}

func (h *Hub) TakeoverApproved(_ context.Context, req *model.TakeoverRequest, creds model.PlaybackCredentials) error {
	return h.sendTo(req.RequesterID, Event{
		Type:    EventTakeoverApproved,
		Payload: approvedPayload{Request: req, Credentials: creds},
	})
}

func (h *Hub) TakeoverDeclined(_ context.Context, req *model.TakeoverRequest) error {
	return h.sendTo(req.RequesterID, Event{Type: EventTakeoverDeclined, Payload: req})
}

// LiveChanged goes to every connected dashboard, without the stream key.
func (h *Hub) LiveChanged(_ context.Context, slot *model.Slot) error {
	return h.sendTo("", Event{Type: EventLiveChanged, Payload: slot.Public()})
}
