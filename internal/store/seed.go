package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
)

// Demo account identifiers created by SeedDemo. The user ids match the
// subjects the auth proxy issues for the demo logins.
const (
	DemoTeacherUserID = "demo-teacher"
	DemoParentUserID  = "demo-parent"
	DemoChildID       = "test-child-1"
	DemoClassroom     = "Turma da Tia Maria"

	demoKnowledgeID = "seed-enrollment-faq"
)

// SeedDemo loads the demo teacher, parent, child and an enrollment FAQ.
// Running it again leaves existing rows in place.
func SeedDemo(ctx context.Context, repo Repository) error {
	teacher := &daycare.Teacher{
		UserID:    DemoTeacherUserID,
		FullName:  "Maria Silva",
		Email:     "professor@daycare.com",
		Phone:     "(11) 99999-0001",
		Classroom: DemoClassroom,
	}
	if err := repo.UpsertTeacher(ctx, teacher); err != nil {
		return fmt.Errorf("seed teacher: %w", err)
	}

	parent := &daycare.Parent{
		UserID:   DemoParentUserID,
		FullName: "João Santos",
		Email:    "pai@daycare.com",
		Phone:    "(11) 99999-0002",
	}
	if err := repo.UpsertParent(ctx, parent); err != nil {
		return fmt.Errorf("seed parent: %w", err)
	}

	child := &daycare.Child{
		ID:        DemoChildID,
		FullName:  "Alice Santos",
		BirthDate: time.Date(2022, time.May, 15, 0, 0, 0, 0, time.UTC),
		Classroom: DemoClassroom,
		IsActive:  true,
	}
	if err := repo.UpsertChild(ctx, child); err != nil {
		return fmt.Errorf("seed child: %w", err)
	}

	err := repo.LinkChild(ctx, daycare.ParentChildLink{
		ParentID:     parent.ID,
		ChildID:      child.ID,
		Relationship: "parent",
		IsPrimary:    true,
		CanPickup:    true,
	})
	if err != nil {
		return fmt.Errorf("seed parent link: %w", err)
	}

	docs, err := repo.ListKnowledgeDocuments(ctx)
	if err != nil {
		return fmt.Errorf("seed knowledge: %w", err)
	}
	for _, doc := range docs {
		if doc.ID == demoKnowledgeID {
			return nil
		}
	}

	err = repo.CreateKnowledgeDocument(ctx, &daycare.KnowledgeDocument{
		ID:           demoKnowledgeID,
		Title:        "Como funciona a matrícula",
		Content:      "A matrícula é feita após uma visita à creche. Traga certidão de nascimento e carteira de vacinação da criança.",
		DocumentType: "FAQ",
		AgentTargets: []persona.AgentType{persona.AgentEnrollment, persona.AgentParentAccess},
		Tags:         []string{"matricula"},
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("seed knowledge: %w", err)
	}
	return nil
}
