package websocket

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lobby-chat/domain/chat"
	apperrors "lobby-chat/errors"
	"lobby-chat/services"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// CloseSessionReplaced is the close code for a connection superseded by a
// newer session. Distinct from 1000 (normal) and 1008 (policy violation)
// so clients can branch on it and redirect to re-authenticate.
const CloseSessionReplaced = 4001

// Client is one live socket: it owns the read/write pumps and implements
// contract.EventSink for the registry and broadcaster.
//
// Lifecycle is Admitting (constructed, not yet pumping), Active (pumps
// running, history replayed), Closing (shutdown triggered) and Closed.
// shutdown is the single Closing entry point and is idempotent.
type Client struct {
	conn   *websocket.Conn
	log    *slog.Logger
	lobby  services.ILobbyService
	depart func(c *Client, evicted bool)

	send chan chat.Event
	term chan chat.Event
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	identity chat.Identity

	ready     atomic.Bool
	evicted   atomic.Bool
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, log *slog.Logger, lobby services.ILobbyService,
	depart func(c *Client, evicted bool), queueSize int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		log:    log,
		lobby:  lobby,
		depart: depart,
		send:   make(chan chat.Event, queueSize),
		term:   make(chan chat.Event, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) Bind(id chat.Identity) {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
}

func (c *Client) Identity() chat.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Consume enqueues an event for the write pump. It never blocks: a closed
// connection or a saturated queue is reported as an error, which the
// broadcaster treats as a disconnect signal.
func (c *Client) Consume(e chat.Event) error {
	select {
	case <-c.done:
		return apperrors.ErrSinkClosed
	default:
	}

	select {
	case c.send <- e:
		return nil
	default:
		return apperrors.ErrSinkSaturated
	}
}

// Terminate marks the connection as superseded and hands the notice to the
// write pump, which delivers it and closes with CloseSessionReplaced.
// Best-effort: if the pump is already gone the notice is swallowed.
func (c *Client) Terminate(e chat.Event) {
	c.evicted.Store(true)

	select {
	case c.term <- e:
	default:
	}
}

// Close tears the connection down without a notice.
func (c *Client) Close() {
	c.shutdown()
}

// shutdown is the only path into Closing. Exactly one caller wins:
// it cancels the connection context, unblocks both pumps, and runs the
// departure cleanup. A second close cannot publish a second player_left.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		_ = c.conn.Close()
		c.depart(c, c.evicted.Load())
	})
}

func (c *Client) markReady() {
	c.ready.Store(true)
}

// readPump pumps inbound frames from the socket into the lobby. It exits,
// and triggers shutdown, on any read error including peer close.
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Debug("Read error", "user_id", c.Identity().UserID, "err", err)
			}
			return
		}
		c.handleInbound(string(raw))
	}
}

// handleInbound turns raw peer text into a chat message. Text arriving
// before the history replay completed is dropped, never interleaved ahead
// of it. Empty text is dropped silently. A persistence failure is surfaced
// to this connection only, as server_error; the connection stays open.
func (c *Client) handleInbound(text string) {
	if !c.ready.Load() {
		c.log.Debug("Dropping message received before replay completed",
			"user_id", c.Identity().UserID)
		return
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if _, err := c.lobby.PostMessage(c.ctx, c.Identity(), trimmed); err != nil {
		c.log.Error("Failed to persist message",
			"user_id", c.Identity().UserID, "err", err)
		_ = c.Consume(chat.NewServerErrorEvent(
			"Your message could not be saved. Please try again."))
	}
}

// writePump is the only writer on the socket. It drains the outbound
// queue, answers the ping ticker, and handles the termination notice.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.done:
			return

		case e := <-c.term:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteJSON(e)
			closeMsg := websocket.FormatCloseMessage(CloseSessionReplaced,
				"superseded by a newer session")
			_ = c.conn.WriteMessage(websocket.CloseMessage, closeMsg)
			return

		case e := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
