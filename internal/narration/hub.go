// Package narration reads cooking steps aloud by pushing speech events to the
// browser over a websocket. Audio is synthesized server-side when a
// Synthesizer is configured; otherwise clients speak the text themselves.
package narration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNoListeners is returned by Speak when no client is connected.
var ErrNoListeners = errors.New("no narration listeners connected")

const (
	EventSpeak  = "speak"
	EventCancel = "cancel"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Event is pushed to every connected client.
type Event struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Audio    []byte `json:"audio,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	MIMEType() string
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSynthesizer makes the hub send audio instead of plain text.
func WithSynthesizer(s Synthesizer) HubOption {
	return func(h *Hub) {
		h.synth = s
	}
}

// Hub fans narration events out to websocket clients. At most one narration
// is active; starting a new one cancels the previous.
type Hub struct {
	base     context.Context
	log      *zap.Logger
	synth    Synthesizer
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	current string
	cancel  context.CancelFunc
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. Synthesis runs under ctx, so cancelling it stops any
// narration in progress.
func NewHub(ctx context.Context, log *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		base: ctx,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and registers the connection as a listener.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("narration listener connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	go h.readPump(c)
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Speak cancels the active narration and starts narrating text. It returns
// once the narration is scheduled, not when playback ends.
func (h *Hub) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return ErrNoListeners
	}
	h.cancelLocked()

	id := uuid.NewString()
	h.current = id
	if h.synth == nil {
		h.broadcastLocked(Event{Type: EventSpeak, ID: id, Text: text})
		return nil
	}

	narrationCtx, cancel := context.WithCancel(h.base)
	h.cancel = cancel
	go h.synthesize(narrationCtx, id, text)
	return nil
}

// Cancel stops the active narration. It is a no-op when nothing is playing.
func (h *Hub) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
}

func (h *Hub) synthesize(ctx context.Context, id, text string) {
	audio, err := h.synth.Synthesize(ctx, text)

	h.mu.Lock()
	defer h.mu.Unlock()

	if ctx.Err() != nil || h.current != id {
		return
	}
	ev := Event{Type: EventSpeak, ID: id, Text: text}
	if err != nil {
		h.log.Warn("speech synthesis failed, sending text only", zap.Error(err))
	} else {
		ev.Audio = audio
		ev.MIMEType = h.synth.MIMEType()
	}
	h.broadcastLocked(ev)
}

func (h *Hub) cancelLocked() {
	if h.current == "" {
		return
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.broadcastLocked(Event{Type: EventCancel, ID: h.current})
	h.current = ""
}

func (h *Hub) broadcastLocked(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encoding narration event", zap.Error(err))
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("narration listener buffer full, dropping event", zap.String("type", ev.Type))
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump only drains control frames; clients never send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("narration listener error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
