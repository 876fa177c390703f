// Package websocket is the transport boundary of the lobby: one duplex
// message channel per client, carrying raw chat text inbound and typed
// JSON events outbound.
package websocket

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lobby-chat/domain/chat"
	apperrors "lobby-chat/errors"
	"lobby-chat/runtime"
	"lobby-chat/services"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and walks each socket through admission.
type Handler struct {
	log       *slog.Logger
	upgrader  websocket.Upgrader
	arbiter   *runtime.Arbiter
	lobby     services.ILobbyService
	queueSize int
}

func NewHandler(log *slog.Logger, arbiter *runtime.Arbiter,
	lobby services.ILobbyService, queueSize int) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The session token is the admission gate, not the Origin.
				return true
			},
		},
		arbiter:   arbiter,
		lobby:     lobby,
		queueSize: queueSize,
	}
}

// ServeWS handles a websocket connection request. The token travels as a
// query parameter (browser clients) or an Authorization bearer header.
//
// A rejected admission still gets an explicit typed event before the close
// frame: error with 1008 for a bad token, server_error with 1011 when the
// history store cannot serve the replay.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := newClient(conn, h.log, h.lobby, h.depart, h.queueSize)

	identity, err := h.arbiter.Admit(token, client)
	if err != nil {
		h.log.Info("Admission rejected", "remote", r.RemoteAddr, "err", err)
		if errors.Is(err, apperrors.ErrNotAuthenticated) {
			h.reject(conn, chat.NewErrorEvent(
				"Invalid or expired session. Please log in again."),
				websocket.ClosePolicyViolation)
		} else {
			h.reject(conn, chat.NewServerErrorEvent(
				"Chat history is unavailable. Please try again later."),
				websocket.CloseInternalServerErr)
		}
		_ = conn.Close()
		return
	}

	// History and player_joined are queued; from here on inbound text is
	// guaranteed to trail the replay.
	client.markReady()

	h.log.Debug("Websocket connection established",
		"remote", r.RemoteAddr, "user_id", identity.UserID)

	go client.writePump()
	go client.readPump()
}

func (h *Handler) depart(c *Client, evicted bool) {
	h.arbiter.Depart(c, evicted)
}

// reject sends a final typed event and a close frame on a connection whose
// pumps never started. Best-effort on both writes.
func (h *Handler) reject(conn *websocket.Conn, e chat.Event, closeCode int) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(e)
	closeMsg := websocket.FormatCloseMessage(closeCode, "")
	_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
