package identity

import "strings"

// Role is the closed set of user roles known to the chat router.
type Role int

const (
	// RoleAnonymous is the zero value: no authenticated user.
	RoleAnonymous Role = iota
	RoleParent
	RoleTeacher
	RoleAdmin
	RoleSuperAdmin
	// RoleUnknown marks a role string that did not match any known role.
	RoleUnknown
)

// ParseRole maps the auth provider's role string to a Role.
func ParseRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return RoleAnonymous
	case "PARENT":
		return RoleParent
	case "TEACHER":
		return RoleTeacher
	case "ADMIN":
		return RoleAdmin
	case "SUPER_ADMIN":
		return RoleSuperAdmin
	default:
		return RoleUnknown
	}
}

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return ""
	case RoleParent:
		return "PARENT"
	case RoleTeacher:
		return "TEACHER"
	case RoleAdmin:
		return "ADMIN"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return "UNKNOWN"
	}
}

// IsAdmin reports whether the role has administrative privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Session is the authenticated identity resolved by the external auth provider.
// A nil *Session means the request is anonymous.
type Session struct {
	UserID   string
	Role     Role
	UserName string
}

// Authenticated reports whether the session carries a user id.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// AgentContext is the per-request identity bag handed to a persona.
// The router fills it once; personas only read it.
type AgentContext struct {
	UserID    string `json:"userId,omitempty"`
	Role      Role   `json:"-"`
	UserName  string `json:"userName,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	TeacherID string `json:"teacherId,omitempty"`
	Classroom string `json:"classroom,omitempty"`
}

// NewAgentContext seeds an AgentContext from a session.
func NewAgentContext(s *Session) AgentContext {
	if s == nil {
		return AgentContext{}
	}
	return AgentContext{
		UserID:   s.UserID,
		Role:     s.Role,
		UserName: s.UserName,
	}
}
