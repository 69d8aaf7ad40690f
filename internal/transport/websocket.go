package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketHandle adapts a gorilla websocket connection to the engine's
// channel-handle capability: an opaque Send plus a closed-connection
// callback. The engine never sees the connection itself.
type WebsocketHandle struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex // gorilla allows one concurrent writer
	closeOnce sync.Once

	mu      sync.Mutex
	onClose func()
}

// NewWebsocketHandle wraps an already upgraded connection.
func NewWebsocketHandle(conn *websocket.Conn, writeTimeout time.Duration) *WebsocketHandle {
	return &WebsocketHandle{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// OnClose registers a callback fired exactly once when the handle
// closes, whether by Close, a failed write or the peer disconnecting.
func (h *WebsocketHandle) OnClose(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClose = fn
}

// Send pushes one message with a write deadline.
func (h *WebsocketHandle) Send(payload []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return h.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close tears the connection down and fires the close callback.
func (h *WebsocketHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.conn.Close()

		h.mu.Lock()
		fn := h.onClose
		h.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
	return err
}

// ReadLoop discards inbound frames until the connection drops, then
// closes the handle. Running it gives the registry prompt notification
// of client disconnects instead of waiting for the next failed send.
func (h *WebsocketHandle) ReadLoop() {
	defer h.Close()

	for {
		if _, _, err := h.conn.ReadMessage(); err != nil {
			return
		}
	}
}
