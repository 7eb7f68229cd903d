package interpret

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/daycare-ai/backend/internal/service/ai"
	"github.com/zhouzirui/daycare-ai/backend/pkg/utils"
)

// Interpreter extracts routine fields from a teacher's free-text note.
type Interpreter interface {
	Interpret(ctx context.Context, text, childName string) (*ai.RoutineExtraction, error)
}

// Handler serves routine note interpretation for teachers.
type Handler struct {
	interpreter Interpreter
	logger      *slog.Logger
}

// New creates the handler. A nil interpreter answers 503.
func New(interpreter Interpreter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{interpreter: interpreter, logger: logger}
}

// RegisterRoutes registers the interpret route. Role checks are mounted by the caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interpret", h.handleInterpret)
}

type interpretRequest struct {
	Text      string `json:"text"`
	ChildName string `json:"child_name"`
}

type interpretResponse struct {
	Success      bool                  `json:"success"`
	Extracted    *ai.RoutineExtraction `json:"extracted"`
	OriginalText string                `json:"original_text"`
}

func (h *Handler) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var payload interpretRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil || strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Texto é obrigatório")
		return
	}

	if h.interpreter == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "interpretação indisponível")
		return
	}

	extracted, err := h.interpreter.Interpret(r.Context(), payload.Text, payload.ChildName)
	if errors.Is(err, ai.ErrNoExtraction) {
		utils.RespondError(w, http.StatusUnprocessableEntity, "Não foi possível extrair informações do texto")
		return
	}
	if err != nil {
		h.logger.Error("interpretation failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "Erro ao interpretar texto")
		return
	}

	utils.RespondJSON(w, http.StatusOK, interpretResponse{
		Success:      true,
		Extracted:    extracted,
		OriginalText: payload.Text,
	})
}
