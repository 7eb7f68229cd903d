package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
)

// ContextBuilder renders the identity block appended to a persona's system
// prompt. An unresolvable identity yields "" rather than an error.
type ContextBuilder interface {
	Build(ctx context.Context, ac identity.AgentContext) (string, error)
}

// ParentContext describes the parent and their linked children.
type ParentContext struct {
	profiles store.ProfileRepository
}

// NewParentContext creates a ParentContext reading from profiles.
func NewParentContext(profiles store.ProfileRepository) *ParentContext {
	return &ParentContext{profiles: profiles}
}

// Build implements ContextBuilder.
func (b *ParentContext) Build(ctx context.Context, ac identity.AgentContext) (string, error) {
	if ac.ParentID == "" {
		return "", nil
	}

	profile, err := b.profiles.ParentProfile(ctx, ac.ParentID)
	if err != nil {
		return "", fmt.Errorf("failed to load parent profile: %w", err)
	}
	if profile == nil {
		return "", nil
	}

	children := make([]string, 0, len(profile.Children))
	for _, child := range profile.Children {
		children = append(children, fmt.Sprintf("- %s (%s)", child.FullName, child.Classroom))
	}
	childrenInfo := strings.Join(children, "\n")
	if childrenInfo == "" {
		childrenInfo = "Nenhum filho vinculado"
	}

	return "\n\nINFORMAÇÕES DO PAI:\nNome: " + profile.FullName + "\nFilhos na creche:\n" + childrenInfo, nil
}

// TeacherContext describes the teacher and the size of their classroom.
type TeacherContext struct {
	profiles store.ProfileRepository
}

// NewTeacherContext creates a TeacherContext reading from profiles.
func NewTeacherContext(profiles store.ProfileRepository) *TeacherContext {
	return &TeacherContext{profiles: profiles}
}

// Build implements ContextBuilder. Children are counted only when the
// teacher has a classroom.
func (b *TeacherContext) Build(ctx context.Context, ac identity.AgentContext) (string, error) {
	if ac.TeacherID == "" {
		return "", nil
	}

	teacher, err := b.profiles.Teacher(ctx, ac.TeacherID)
	if err != nil {
		return "", fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher == nil {
		return "", nil
	}

	classroom := teacher.Classroom
	count := 0
	if classroom != "" {
		count, err = b.profiles.CountActiveChildren(ctx, classroom)
		if err != nil {
			return "", fmt.Errorf("failed to count classroom children: %w", err)
		}
	} else {
		classroom = "Não definida"
	}

	return fmt.Sprintf("\n\nINFORMAÇÕES DO PROFESSOR:\nNome: %s\nTurma: %s\nCrianças na turma: %d",
		teacher.FullName, classroom, count), nil
}
