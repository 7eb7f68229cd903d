package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/daycare-ai/backend/internal/middleware"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
	"github.com/zhouzirui/daycare-ai/backend/pkg/utils"
)

// Handler 管理知识库文档与代理配置，仅管理员可访问。
type Handler struct {
	repo   store.KnowledgeRepository
	logger *slog.Logger
}

// New 创建管理处理器
func New(repo store.KnowledgeRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes 注册管理路由。调用方负责挂载角色校验中间件。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/knowledge", h.handleListKnowledge)
	r.Post("/knowledge", h.handleCreateKnowledge)
	r.Patch("/knowledge/{id}", h.handleUpdateKnowledge)
	r.Get("/agents/{agentType}/config", h.handleGetAgentConfig)
	r.Put("/agents/{agentType}/config", h.handlePutAgentConfig)
}

func (h *Handler) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.ListKnowledgeDocuments(r.Context())
	if err != nil {
		h.internalError(w, "list knowledge failed", err)
		return
	}
	if docs == nil {
		docs = []daycare.KnowledgeDocument{}
	}
	utils.RespondJSON(w, http.StatusOK, docs)
}

type createKnowledgeRequest struct {
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	DocumentType string              `json:"document_type"`
	AgentTargets []persona.AgentType `json:"agent_target"`
	Tags         []string            `json:"tags"`
}

func (h *Handler) handleCreateKnowledge(w http.ResponseWriter, r *http.Request) {
	var payload createKnowledgeRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Content) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Título e conteúdo são obrigatórios")
		return
	}
	if !validTargets(payload.AgentTargets) {
		utils.RespondError(w, http.StatusBadRequest, "agent_target contains an unknown agent type")
		return
	}

	doc := &daycare.KnowledgeDocument{
		Title:        payload.Title,
		Content:      payload.Content,
		DocumentType: payload.DocumentType,
		AgentTargets: nonNil(payload.AgentTargets),
		Tags:         nonNil(payload.Tags),
		IsActive:     true,
	}
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		doc.UploadedBy = session.UserID
	}

	if err := h.repo.CreateKnowledgeDocument(r.Context(), doc); err != nil {
		h.internalError(w, "create knowledge failed", err)
		return
	}

	h.logger.Info("knowledge document created", "id", doc.ID, "targets", doc.AgentTargets)
	utils.RespondJSON(w, http.StatusCreated, doc)
}

type updateKnowledgeRequest struct {
	Title        *string              `json:"title"`
	Content      *string              `json:"content"`
	DocumentType *string              `json:"document_type"`
	AgentTargets *[]persona.AgentType `json:"agent_target"`
	Tags         *[]string            `json:"tags"`
	IsActive     *bool                `json:"is_active"`
}

func (h *Handler) handleUpdateKnowledge(w http.ResponseWriter, r *http.Request) {
	var payload updateKnowledgeRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.KnowledgePatch(payload)
	if patch.Empty() {
		utils.RespondError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if (patch.Title != nil && strings.TrimSpace(*patch.Title) == "") || (patch.Content != nil && strings.TrimSpace(*patch.Content) == "") {
		utils.RespondError(w, http.StatusBadRequest, "Título e conteúdo são obrigatórios")
		return
	}
	if patch.AgentTargets != nil && !validTargets(*patch.AgentTargets) {
		utils.RespondError(w, http.StatusBadRequest, "agent_target contains an unknown agent type")
		return
	}

	doc, err := h.repo.UpdateKnowledgeDocument(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.internalError(w, "update knowledge failed", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleGetAgentConfig(w http.ResponseWriter, r *http.Request) {
	agentType, ok := parseAgentType(w, r)
	if !ok {
		return
	}

	cfg, err := h.repo.AgentConfig(r.Context(), agentType)
	if err != nil {
		h.internalError(w, "load agent config failed", err)
		return
	}
	if cfg == nil {
		utils.RespondError(w, http.StatusNotFound, "agent config not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cfg)
}

type agentConfigRequest struct {
	SystemPrompt *string  `json:"system_prompt"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
}

func (h *Handler) handlePutAgentConfig(w http.ResponseWriter, r *http.Request) {
	agentType, ok := parseAgentType(w, r)
	if !ok {
		return
	}

	var payload agentConfigRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Temperature != nil && (*payload.Temperature < 0 || *payload.Temperature > 2) {
		utils.RespondError(w, http.StatusBadRequest, "temperature must be between 0 and 2")
		return
	}
	if payload.MaxTokens != nil && *payload.MaxTokens < 0 {
		utils.RespondError(w, http.StatusBadRequest, "max_tokens must not be negative")
		return
	}

	cfg := &daycare.AgentConfig{
		AgentType:    agentType,
		SystemPrompt: payload.SystemPrompt,
		Temperature:  payload.Temperature,
		MaxTokens:    payload.MaxTokens,
	}
	if err := h.repo.UpsertAgentConfig(r.Context(), cfg); err != nil {
		h.internalError(w, "save agent config failed", err)
		return
	}

	h.logger.Info("agent config saved", "agent", string(agentType))
	utils.RespondJSON(w, http.StatusOK, cfg)
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	utils.RespondError(w, http.StatusInternalServerError, "Erro interno do servidor")
}

func parseAgentType(w http.ResponseWriter, r *http.Request) (persona.AgentType, bool) {
	agentType := persona.AgentType(strings.ToUpper(chi.URLParam(r, "agentType")))
	if !agentType.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "unknown agent type")
		return "", false
	}
	return agentType, true
}

func validTargets(targets []persona.AgentType) bool {
	for _, t := range targets {
		if !t.Valid() {
			return false
		}
	}
	return true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
