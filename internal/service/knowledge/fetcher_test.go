package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
)

type fakeRepo struct {
	store.KnowledgeRepository
	docs    []daycare.KnowledgeDocument
	configs map[persona.AgentType]*daycare.AgentConfig
	err     error
}

func (f *fakeRepo) ActiveKnowledgeDocuments(_ context.Context, types []persona.AgentType) ([]daycare.KnowledgeDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []daycare.KnowledgeDocument
	for _, d := range f.docs {
		if d.IsActive && d.Targets(types...) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) AgentConfig(_ context.Context, t persona.AgentType) (*daycare.AgentConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.configs[t], nil
}

func TestDocsRendersActiveDocumentsNewestFirst(t *testing.T) {
	s, err := store.NewSQLite(store.MemoryPath)
	if err != nil {
		t.Fatalf("NewSQLite err: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	docs := []daycare.KnowledgeDocument{
		{Title: "Cardápio", Content: "Alimentação saudável", IsActive: true, UpdatedAt: base},
		{Title: "Uniforme", Content: "Uso opcional", IsActive: true, UpdatedAt: base.Add(time.Minute)},
		{Title: "Antigo", Content: "Não usar", IsActive: false, UpdatedAt: base.Add(time.Hour)},
	}
	for i := range docs {
		docs[i].AgentTargets = []persona.AgentType{persona.AgentEnrollment}
		if err := s.CreateKnowledgeDocument(ctx, &docs[i]); err != nil {
			t.Fatalf("CreateKnowledgeDocument err: %v", err)
		}
	}

	got, err := NewFetcher(s).Docs(ctx, persona.AgentEnrollment)
	if err != nil {
		t.Fatalf("Docs err: %v", err)
	}

	want := "### Uniforme\nUso opcional\n\n---\n\n### Cardápio\nAlimentação saudável"
	if got != want {
		t.Fatalf("unexpected block:\n%s\nwant:\n%s", got, want)
	}
	if strings.Contains(got, "Antigo") {
		t.Fatal("inactive document leaked into the block")
	}
}

func TestDocsEmptyWhenNothingMatches(t *testing.T) {
	f := NewFetcher(&fakeRepo{docs: []daycare.KnowledgeDocument{
		{Title: "x", IsActive: true, AgentTargets: []persona.AgentType{persona.AgentTeacherAssistant}},
	}})

	got, err := f.Docs(context.Background(), persona.AgentParentAccess)
	if err != nil {
		t.Fatalf("Docs err: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty block, got %q", got)
	}
}

func TestDocsPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	f := NewFetcher(&fakeRepo{err: boom})

	if _, err := f.Docs(context.Background(), persona.AgentEnrollment); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if _, err := f.Config(context.Background(), persona.AgentEnrollment); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestResolveDefaults(t *testing.T) {
	got := Resolve(nil, "default prompt")
	if got.SystemPrompt != "default prompt" || got.Temperature != DefaultTemperature || got.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestResolvePartialOverride(t *testing.T) {
	prompt := "custom"
	empty := "   "
	zero := 0.0
	tokens := 256

	got := Resolve(&daycare.AgentConfig{SystemPrompt: &prompt, MaxTokens: &tokens}, "default")
	if got.SystemPrompt != "custom" || got.MaxTokens != 256 || got.Temperature != DefaultTemperature {
		t.Fatalf("unexpected settings: %+v", got)
	}

	got = Resolve(&daycare.AgentConfig{SystemPrompt: &empty, Temperature: &zero}, "default")
	if got.SystemPrompt != "default" || got.Temperature != DefaultTemperature {
		t.Fatalf("blank values must fall back: %+v", got)
	}
}
