package chat

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/daycare-ai/backend/internal/middleware"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/agent"
	"github.com/zhouzirui/daycare-ai/backend/pkg/logger"
	"github.com/zhouzirui/daycare-ai/backend/pkg/utils"
)

const (
	messageRequired = "Mensagem é obrigatória"
	streamFailed    = "Erro ao processar mensagem"
)

// Handler 聊天服务的HTTP处理器，支持 SSE 与 WebSocket 两种传输。
// 日志取自请求上下文（见 middleware.RequestLogger）。
type Handler struct {
	dispatcher agent.Dispatcher
	upgrader   websocket.Upgrader

	readTimeout  time.Duration
	pingInterval time.Duration
}

// New 创建聊天处理器
func New(dispatcher agent.Dispatcher, allowedOrigins []string) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		readTimeout:  readTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/ws", h.handleWebSocket)
}

// handleChat 以 Server-Sent Events 流式返回代理回复
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req chat.Request
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, messageRequired)
		return
	}
	if err := req.Validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, messageRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	stream := h.dispatcher.Route(r.Context(), req, middleware.SessionFromContext(r.Context()))
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Error("chat stream failed", "error", err)
			_ = utils.SendSSEChunk(w, flusher, chat.ErrorEvent(streamFailed))
			return
		}
		if err := utils.SendSSEChunk(w, flusher, event); err != nil {
			log.Info("chat client went away", "error", err)
			return
		}
	}
}
