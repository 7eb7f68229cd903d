package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
)

// Dispatcher answers a chat request on behalf of a session.
//
// Callers validate the request first and report invalid input at the
// transport level (HTTP 400, or an error frame before dispatch). Route
// still checks it and answers an invalid request with a single error event
// without touching any persona.
type Dispatcher interface {
	Route(ctx context.Context, req chat.Request, session *identity.Session) *EventStream
}

// Router picks the persona for a session and fills its agent context.
type Router struct {
	profiles store.ProfileRepository
	logger   *slog.Logger

	enrollment       *Persona
	parentAccess     *Persona
	teacherAssistant *Persona
}

var _ Dispatcher = (*Router)(nil)

// NewRouter wires the built-in personas from catalog.
func NewRouter(profiles store.ProfileRepository, catalog persona.Store, rt Runtime) (*Router, error) {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}

	lookup := func(t persona.AgentType) (persona.Persona, error) {
		p, ok := catalog.FindByType(t)
		if !ok {
			return persona.Persona{}, fmt.Errorf("persona for %s not registered", t)
		}
		return p, nil
	}

	enrollment, err := lookup(persona.AgentEnrollment)
	if err != nil {
		return nil, err
	}
	parentAccess, err := lookup(persona.AgentParentAccess)
	if err != nil {
		return nil, err
	}
	teacherAssistant, err := lookup(persona.AgentTeacherAssistant)
	if err != nil {
		return nil, err
	}

	return &Router{
		profiles:         profiles,
		logger:           rt.Logger,
		enrollment:       NewPersona(enrollment, nil, rt),
		parentAccess:     NewPersona(parentAccess, NewParentContext(profiles), rt),
		teacherAssistant: NewPersona(teacherAssistant, NewTeacherContext(profiles), rt),
	}, nil
}

// Route dispatches req. A nil or anonymous session always reaches enrollment.
// Profile lookup failures are logged and leave the context unresolved.
func (r *Router) Route(ctx context.Context, req chat.Request, session *identity.Session) *EventStream {
	if err := req.Validate(); err != nil {
		return StreamOf(chat.ErrorEvent(err.Error()))
	}

	if !session.Authenticated() {
		return r.dispatch(ctx, r.enrollment, req, identity.RoleAnonymous)
	}

	ac := identity.NewAgentContext(session)

	switch session.Role {
	case identity.RoleParent:
		parent, err := r.profiles.ParentByUserID(ctx, session.UserID)
		if err != nil {
			r.logger.Warn("parent lookup failed", "user_id", session.UserID, "error", err)
		} else if parent != nil {
			ac.ParentID = parent.ID
		}
		return r.dispatch(ctx, r.parentAccess, req.WithContext(ac), session.Role)

	case identity.RoleTeacher:
		teacher, err := r.profiles.TeacherByUserID(ctx, session.UserID)
		if err != nil {
			r.logger.Warn("teacher lookup failed", "user_id", session.UserID, "error", err)
		} else if teacher != nil {
			ac.TeacherID = teacher.ID
			ac.Classroom = teacher.Classroom
		}
		return r.dispatch(ctx, r.teacherAssistant, req.WithContext(ac), session.Role)

	case identity.RoleAdmin, identity.RoleSuperAdmin:
		// Admins get the teacher assistant without a teacher profile.
		return r.dispatch(ctx, r.teacherAssistant, req.WithContext(ac), session.Role)

	case identity.RoleAnonymous, identity.RoleUnknown:
		return r.dispatch(ctx, r.enrollment, req, session.Role)

	default:
		return r.dispatch(ctx, r.enrollment, req, session.Role)
	}
}

func (r *Router) dispatch(ctx context.Context, p *Persona, req chat.Request, role identity.Role) *EventStream {
	r.logger.Info("chat routed",
		"agent", string(p.Descriptor.Type),
		"role", role.String(),
		"history", len(req.History),
	)
	return p.Run(ctx, req)
}
