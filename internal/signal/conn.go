package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Close codes surfaced to clients. 4000/4001/4004 match what the web
// client already handles; 4009 covers the duplicate-peer rejection.
const (
	CloseIncorrectPassword websocket.StatusCode = 4000
	CloseAuthFailed        websocket.StatusCode = 4001
	CloseRoomNotFound      websocket.StatusCode = 4004
	CloseDuplicatePeer     websocket.StatusCode = 4009
)

const sendBuffer = 64

// Conn wraps a websocket with a buffered outbound queue so one slow
// receiver can't stall a broadcast to the rest of a room. A full queue
// marks the connection stale and the registry evicts it.
type Conn struct {
	ws   *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	return &Conn{
		ws:   ws,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}, nil
}

// TrySend queues a frame without blocking. False means the queue is full
// or the connection is already dead.
func (c *Conn) TrySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}

// Kill drops the connection immediately. Safe to call from inside the
// registry lock: it never blocks and never calls back into the registry.
func (c *Conn) Kill() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.CloseNow()
	})
}

// Close performs a normal close handshake with the given code
func (c *Conn) Close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close(code, reason)
	})
}

// Read blocks until a text/binary frame arrives.
// Returns false when the connection is gone.
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop drains the outbound queue + sends periodic pings.
// Exits when the connection dies or ctx is cancelled.
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
				return
			}
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
