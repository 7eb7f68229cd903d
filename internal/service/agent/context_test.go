package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
)

func TestParentContextListsChildren(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*daycare.ParentProfile{
		"p1": {
			Parent: daycare.Parent{ID: "p1", FullName: "João Santos"},
			Children: []daycare.Child{
				{FullName: "Alice Santos", Classroom: "Turma da Tia Maria"},
				{FullName: "Bruno Santos", Classroom: "Berçário"},
			},
		},
		"p2": {Parent: daycare.Parent{ID: "p2", FullName: "Ana Lima"}},
	}}
	builder := NewParentContext(profiles)

	got, err := builder.Build(context.Background(), identity.AgentContext{ParentID: "p1"})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	want := "\n\nINFORMAÇÕES DO PAI:\nNome: João Santos\nFilhos na creche:\n- Alice Santos (Turma da Tia Maria)\n- Bruno Santos (Berçário)"
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}

	got, err = builder.Build(context.Background(), identity.AgentContext{ParentID: "p2"})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if want := "\n\nINFORMAÇÕES DO PAI:\nNome: Ana Lima\nFilhos na creche:\nNenhum filho vinculado"; got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestParentContextUnresolved(t *testing.T) {
	builder := NewParentContext(&fakeProfiles{})

	for _, ac := range []identity.AgentContext{{}, {ParentID: "missing"}} {
		got, err := builder.Build(context.Background(), ac)
		if err != nil || got != "" {
			t.Fatalf("Build(%+v) = %q, %v", ac, got, err)
		}
	}
}

func TestTeacherContext(t *testing.T) {
	profiles := &fakeProfiles{
		teachers: map[string]*daycare.Teacher{
			"u1": {ID: "t1", FullName: "Maria Silva", Classroom: "Turma da Tia Maria"},
			"u2": {ID: "t2", FullName: "Carla Dias"},
		},
		counts: map[string]int{"Turma da Tia Maria": 12},
	}
	builder := NewTeacherContext(profiles)

	got, err := builder.Build(context.Background(), identity.AgentContext{TeacherID: "t1"})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if want := "\n\nINFORMAÇÕES DO PROFESSOR:\nNome: Maria Silva\nTurma: Turma da Tia Maria\nCrianças na turma: 12"; got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}

	got, err = builder.Build(context.Background(), identity.AgentContext{TeacherID: "t2"})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if want := "\n\nINFORMAÇÕES DO PROFESSOR:\nNome: Carla Dias\nTurma: Não definida\nCrianças na turma: 0"; got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
	if profiles.countCalls != 1 {
		t.Fatalf("expected one classroom count, got %d", profiles.countCalls)
	}

	if got, err := builder.Build(context.Background(), identity.AgentContext{TeacherID: "gone"}); got != "" || err != nil {
		t.Fatalf("Build(unknown) = %q, %v", got, err)
	}
}

type failingProfiles struct {
	fakeProfiles
}

func (*failingProfiles) ParentProfile(context.Context, string) (*daycare.ParentProfile, error) {
	return nil, errors.New("db offline")
}

func TestParentContextPropagatesStoreErrors(t *testing.T) {
	builder := NewParentContext(&failingProfiles{})
	if _, err := builder.Build(context.Background(), identity.AgentContext{ParentID: "p1"}); err == nil {
		t.Fatal("expected store error")
	}
}
