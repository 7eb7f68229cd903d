// Package store provides persistence for the daycare domain and the chat knowledge base.
package store

import (
	"context"
	"errors"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
)

// ErrNotFound is returned by update operations when the target row does not exist.
var ErrNotFound = errors.New("not found")

// KnowledgeRepository reads and curates knowledge documents and agent configs.
type KnowledgeRepository interface {
	// ActiveKnowledgeDocuments returns active documents targeting any of the
	// given agent types, most recently updated first.
	ActiveKnowledgeDocuments(ctx context.Context, types []persona.AgentType) ([]daycare.KnowledgeDocument, error)

	// ListKnowledgeDocuments returns every document, most recently updated first.
	ListKnowledgeDocuments(ctx context.Context) ([]daycare.KnowledgeDocument, error)

	// CreateKnowledgeDocument inserts a document, filling ID and timestamps when unset.
	CreateKnowledgeDocument(ctx context.Context, doc *daycare.KnowledgeDocument) error

	// UpdateKnowledgeDocument applies a partial update and returns the stored document.
	UpdateKnowledgeDocument(ctx context.Context, id string, patch KnowledgePatch) (*daycare.KnowledgeDocument, error)

	// AgentConfig returns the config for an agent type, or nil when none exists.
	AgentConfig(ctx context.Context, agentType persona.AgentType) (*daycare.AgentConfig, error)

	// UpsertAgentConfig creates or replaces the config for cfg.AgentType.
	UpsertAgentConfig(ctx context.Context, cfg *daycare.AgentConfig) error
}

// ProfileRepository resolves the identity-linked profiles used for chat context.
// Lookups return (nil, nil) when the row does not exist.
type ProfileRepository interface {
	ParentByUserID(ctx context.Context, userID string) (*daycare.Parent, error)
	TeacherByUserID(ctx context.Context, userID string) (*daycare.Teacher, error)
	ParentProfile(ctx context.Context, parentID string) (*daycare.ParentProfile, error)
	Teacher(ctx context.Context, teacherID string) (*daycare.Teacher, error)
	CountActiveChildren(ctx context.Context, classroom string) (int, error)
}

// Repository is the full persistence surface of the service.
type Repository interface {
	KnowledgeRepository
	ProfileRepository

	UpsertParent(ctx context.Context, p *daycare.Parent) error
	UpsertTeacher(ctx context.Context, t *daycare.Teacher) error
	UpsertChild(ctx context.Context, c *daycare.Child) error
	LinkChild(ctx context.Context, link daycare.ParentChildLink) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// KnowledgePatch carries the fields to change on a knowledge document.
type KnowledgePatch struct {
	Title        *string
	Content      *string
	DocumentType *string
	AgentTargets *[]persona.AgentType
	Tags         *[]string
	IsActive     *bool
}

// Empty reports whether the patch changes nothing.
func (p KnowledgePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.DocumentType == nil &&
		p.AgentTargets == nil && p.Tags == nil && p.IsActive == nil
}
