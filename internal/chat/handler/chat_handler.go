package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"github.com/dinechat/dinechat/pkg/dialog"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	outboundBuffer = 16
)

// InboundMessage is one user utterance arriving over the socket.
type InboundMessage struct {
	Message string `json:"message"`
}

// OutboundMessage is one bot reply sent over the socket.
type OutboundMessage struct {
	SessionID   string              `json:"session_id"`
	Response    string              `json:"response"`
	Stage       string              `json:"stage"`
	Understood  bool                `json:"understood"`
	Reservation *dialog.Reservation `json:"reservation,omitempty"`
	Confirmed   bool                `json:"confirmed,omitempty"`
}

// SessionResponse is the admin view of a session.
type SessionResponse struct {
	ID           string    `json:"id"`
	Stage        string    `json:"stage"`
	FailCount    int       `json:"fail_count"`
	Turns        int       `json:"turns"`
	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`
}

// ChatHandler serves the websocket chat endpoint and the session admin API.
type ChatHandler struct {
	engine   *dialog.Engine
	store    Store
	upgrader websocket.Upgrader
}

// NewChatHandler creates a chat handler over the given engine and store.
func NewChatHandler(engine *dialog.Engine, store Store) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		store:  store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the chat and session routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/chat", h.Chat)
	mux.HandleFunc("GET /api/v1/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/history", h.GetHistory)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.DeleteSession)
}

// Chat handles GET /ws/chat. An optional ?session=<id> query resumes an
// existing session; otherwise a new one is started.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	id := r.URL.Query().Get("session")
	if id == "" {
		id = xid.New().String()
	}
	sess, created := h.store.GetOrCreate(id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// gorilla/websocket allows one concurrent writer, so all writes go
	// through a single goroutine fed by this channel.
	out := make(chan OutboundMessage, outboundBuffer)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-out:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					slog.Warn("websocket write failed",
						slog.String("session_id", id),
						slog.String("error", err.Error()))
					cancel()
					return
				}
			}
		}
	}()

	// Resumed sessions were already greeted; a second welcome would also
	// re-emit the session start event.
	if created {
		out <- OutboundMessage{
			SessionID:  id,
			Response:   h.engine.Welcome(ctx, sess),
			Stage:      sess.Stage.String(),
			Understood: true,
		}
	}

	conn.SetReadLimit(maxMessageSize)
	for {
		var in InboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed",
					slog.String("session_id", id),
					slog.String("error", err.Error()))
			}
			break
		}

		// Turns are processed one at a time per connection, which is the
		// serialization the engine requires.
		res := h.engine.ProcessTurn(ctx, sess, in.Message)
		msg := OutboundMessage{
			SessionID:   id,
			Response:    res.Response,
			Stage:       res.Stage.String(),
			Understood:  res.Understood,
			Reservation: res.Reservation,
			Confirmed:   res.Confirmed,
		}
		select {
		case out <- msg:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	cancel()
	close(out)
	<-writeDone
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func toSessionResponse(sess *dialog.Session) SessionResponse {
	return SessionResponse{
		ID:           sess.ID,
		Stage:        sess.Stage.String(),
		FailCount:    sess.FailCount,
		Turns:        sess.HistoryLen(),
		StartTime:    sess.StartTime,
		LastActivity: sess.IdleSince(),
	}
}

// ListSessions handles GET /api/v1/sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.store.All()
	resp := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// GetHistory handles GET /api/v1/sessions/{id}/history
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.CopyHistory())
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
