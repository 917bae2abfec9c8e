package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	EventTypeConnected = "connected"
	EventTypeUpdated   = "updated"
	EventTypeHeartbeat = "heartbeat"
)

// JackpotHandler bridges the jackpot Notifier's Broadcaster to HTTP routes
// (SSE + WebSocket), scoped to a single jackpotId per connection.
type JackpotHandler struct {
	notifier        *jackpot.Notifier
	app             *App
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	upgrader        websocket.Upgrader
}

// NewJackpotHandler creates a streaming handler.
func NewJackpotHandler(app *App, notifier *jackpot.Notifier) *JackpotHandler {
	return &JackpotHandler{
		notifier:        notifier,
		app:             app,
		logger:          app.logger.With().Str("handler", "jackpot_stream").Logger(),
		heartbeatPeriod: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Response is the envelope pushed to stream listeners.
type Response struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Update    *jackpot.Update `json:"update,omitempty"`
}

// StreamUpdates opens an SSE connection streaming updates for one jackpot.
// Route: GET /api/jackpots/{jackpotId}/updates
func (h *JackpotHandler) StreamUpdates(c *gin.Context) {
	jackpotID, err := strconv.ParseInt(c.Param("jackpotId"), 10, 64)
	if err != nil {
		ErrorWithMessage(c, http.StatusBadRequest, "invalid-input: jackpotId must be an integer")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.WriteHeader(http.StatusOK)

	sender := &sseSender{writer: c.Writer}
	h.streamUpdates(c.Request.Context(), jackpotID, sender)
}

// StreamUpdatesWebSocket opens a WebSocket connection streaming updates for
// one jackpot.
// Route: GET /api/jackpots/{jackpotId}/updates/ws
func (h *JackpotHandler) StreamUpdatesWebSocket(c *gin.Context) {
	jackpotID, err := strconv.ParseInt(c.Param("jackpotId"), 10, 64)
	if err != nil {
		ErrorWithMessage(c, http.StatusBadRequest, "invalid-input: jackpotId must be an integer")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade to websocket")
		return
	}
	defer conn.Close() //nolint:errcheck

	writeDeadline := 10 * time.Second
	conn.SetWriteDeadline(time.Now().Add(writeDeadline)) //nolint:errcheck

	done := make(chan struct{})

	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute)) //nolint:errcheck
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("websocket connection closed unexpectedly")
			} else {
				h.logger.Debug().Err(err).Msg("websocket closed normally")
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	go func() {
		defer pingTicker.Stop()
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
					h.logger.Debug().Err(err).Msg("failed to send ping")
					return
				}
			}
		}
	}()

	sender := &wsSender{
		conn:          conn,
		done:          done,
		logger:        h.logger,
		writeDeadline: writeDeadline,
	}
	h.streamUpdates(c.Request.Context(), jackpotID, sender)
}

// streamUpdates handles the common streaming logic for both SSE and WebSocket.
func (h *JackpotHandler) streamUpdates(ctx context.Context, jackpotID int64, sender messageSender) {
	updates, cancel := h.notifier.Broadcaster().Listen(ctx)
	defer cancel()

	if err := sender.Send(&Response{Type: EventTypeConnected, Timestamp: time.Now().Unix()}); err != nil {
		h.logger.Warn().Err(err).Msg("failed to send connected event, stopping stream")
		return
	}

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	var doneChan <-chan struct{}
	if ws, ok := sender.(*wsSender); ok {
		doneChan = ws.done
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-doneChan:
			h.logger.Debug().Msg("websocket connection closed, stopping stream")
			return
		case <-heartbeat.C:
			if err := sender.Send(&Response{Type: EventTypeHeartbeat, Timestamp: time.Now().Unix()}); err != nil {
				h.logger.Warn().Err(err).Msg("failed to send heartbeat, stopping stream")
				return
			}
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.JackpotID != jackpotID {
				continue
			}
			upd := update
			if err := sender.Send(&Response{Type: EventTypeUpdated, Timestamp: time.Now().Unix(), Update: &upd}); err != nil {
				h.logger.Warn().Err(err).Msg("failed to send update, stopping stream")
				return
			}
		}
	}
}

// messageSender interface for sending messages (SSE or WebSocket).
type messageSender interface {
	Send(*Response) error
}

// sseSender sends messages via SSE.
type sseSender struct {
	writer http.ResponseWriter
}

func (s *sseSender) Send(resp *Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = s.writer.Write([]byte("data: " + string(payload) + "\n\n"))
	if err != nil {
		return err
	}
	s.writer.(http.Flusher).Flush()
	return nil
}

// wsSender sends messages via WebSocket.
type wsSender struct {
	conn          *websocket.Conn
	done          <-chan struct{}
	logger        zerolog.Logger
	writeDeadline time.Duration
}

func (s *wsSender) Send(resp *Response) error {
	select {
	case <-s.done:
		s.logger.Debug().Str("event_type", resp.Type).Msg("connection already closed, skipping send")
		return io.EOF
	default:
	}

	deadline := time.Now().Add(s.writeDeadline)
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set write deadline")
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", resp.Type).Msg("failed to marshal response")
		return err
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn().Err(err).Str("event_type", resp.Type).Msg("websocket write failed: connection closed")
		} else {
			s.logger.Warn().Err(err).Str("event_type", resp.Type).Msg("websocket write failed")
		}
		return err
	}

	return nil
}
