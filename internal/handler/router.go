package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/daycare-ai/backend/internal/handler/admin"
	"github.com/zhouzirui/daycare-ai/backend/internal/handler/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/handler/interpret"
	"github.com/zhouzirui/daycare-ai/backend/internal/handler/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/middleware"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	personaModel "github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/agent"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
	"github.com/zhouzirui/daycare-ai/backend/pkg/utils"
)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Personas   personaModel.Store
	Dispatcher agent.Dispatcher
	Knowledge  store.KnowledgeRepository
	// Interpreter may be nil when no model is configured.
	Interpreter    interpret.Interpreter
	Health         Pinger
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.Session)

	r.Get("/healthz", healthHandler(deps.Health))

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Dispatcher, deps.AllowedOrigins).RegisterRoutes(api)

		api.Route("/admin", func(adminAPI chi.Router) {
			adminAPI.Use(middleware.RequireRoles(identity.RoleAdmin, identity.RoleSuperAdmin))
			admin.New(deps.Knowledge, deps.Logger).RegisterRoutes(adminAPI)
		})

		api.Route("/teacher", func(teacherAPI chi.Router) {
			teacherAPI.Use(middleware.RequireRoles(identity.RoleTeacher, identity.RoleAdmin, identity.RoleSuperAdmin))
			interpret.New(deps.Interpreter, deps.Logger).RegisterRoutes(teacherAPI)
		})
	})

	return r
}

func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
