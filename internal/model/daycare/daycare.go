package daycare

import (
	"time"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
)

// Parent is a guardian profile linked to a user account.
type Parent struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Teacher is a staff profile linked to a user account.
type Teacher struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	FullName  string `json:"fullName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Classroom string `json:"classroom,omitempty"`
}

// Child is an enrolled child.
type Child struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	BirthDate time.Time `json:"birthDate"`
	Classroom string    `json:"classroom"`
	IsActive  bool      `json:"isActive"`
}

// ParentChildLink associates a parent with a child.
type ParentChildLink struct {
	ParentID     string `json:"parentId"`
	ChildID      string `json:"childId"`
	Relationship string `json:"relationship"`
	IsPrimary    bool   `json:"isPrimary"`
	CanPickup    bool   `json:"canPickup"`
}

// ParentProfile is a parent together with the children linked to it.
type ParentProfile struct {
	Parent
	Children []Child `json:"children"`
}

// KnowledgeDocument is an administrator-curated snippet injected into persona prompts.
type KnowledgeDocument struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	DocumentType string              `json:"document_type"`
	AgentTargets []persona.AgentType `json:"agent_target"`
	Tags         []string            `json:"tags"`
	UploadedBy   string              `json:"uploaded_by,omitempty"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Targets reports whether the document applies to any of the given agent types.
func (d KnowledgeDocument) Targets(types ...persona.AgentType) bool {
	for _, have := range d.AgentTargets {
		for _, want := range types {
			if have == want {
				return true
			}
		}
	}
	return false
}

// AgentConfig overrides a persona's generation settings. Nil fields fall back to defaults.
type AgentConfig struct {
	AgentType    persona.AgentType `json:"agent_type"`
	SystemPrompt *string           `json:"system_prompt,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty"`
	MaxTokens    *int              `json:"max_tokens,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
