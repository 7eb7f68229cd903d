package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/daycare-ai/backend/internal/middleware"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	"github.com/zhouzirui/daycare-ai/backend/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second

	// frameBacklog bounds requests queued while a reply is streaming.
	frameBacklog = 16
)

type inboundFrame struct {
	messageType int
	payload     []byte
}

// handleWebSocket 处理WebSocket连接：每个文本帧是一条聊天请求，每个事件作为一个 JSON 帧返回。
// 读取在独立的 goroutine 中进行，回复期间仍能处理 pong 与断开。
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	log := logger.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan inboundFrame, frameBacklog)
	go h.readLoop(ctx, cancel, conn, frames, log)
	go h.pingLoop(ctx, conn)

	for {
		var frame inboundFrame
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			frame = f
		}

		if frame.messageType != websocket.TextMessage {
			if err := writeEvent(conn, chat.ErrorEvent(messageRequired)); err != nil {
				return
			}
			continue
		}

		if err := h.answer(ctx, conn, frame.payload, session, log); err != nil {
			log.Info("websocket client went away", "error", err)
			return
		}
	}
}

// readLoop owns every read on conn. A read failure cancels ctx so an
// in-flight reply stops with its provider call.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames chan<- inboundFrame, log *slog.Logger) {
	defer cancel()
	defer close(frames)

	extend := func() error { return conn.SetReadDeadline(time.Now().Add(h.readTimeout)) }
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = extend()

		select {
		case frames <- inboundFrame{messageType: messageType, payload: payload}:
		case <-ctx.Done():
			return
		}
	}
}

// answer streams the reply to one inbound frame. It returns an error only
// when the connection can no longer be written.
func (h *Handler) answer(ctx context.Context, conn *websocket.Conn, payload []byte, session *identity.Session, log *slog.Logger) error {
	var req chat.Request
	if err := json.Unmarshal(payload, &req); err != nil || req.Validate() != nil {
		return writeEvent(conn, chat.ErrorEvent(messageRequired))
	}

	stream := h.dispatcher.Route(ctx, req, session)
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Error("chat stream failed", "error", err)
			return writeEvent(conn, chat.ErrorEvent(streamFailed))
		}
		if err := writeEvent(conn, event); err != nil {
			return err
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event chat.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}

// originChecker mirrors the CORS allow-list. Non-browser clients send no Origin.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowedOrigins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
