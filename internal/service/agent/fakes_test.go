package agent

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/ai"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeKnowledge struct {
	mu       sync.Mutex
	docs     map[persona.AgentType]string
	configs  map[persona.AgentType]*daycare.AgentConfig
	docsErr  error
	requests []persona.AgentType
}

func (f *fakeKnowledge) Docs(_ context.Context, types ...persona.AgentType) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, types...)
	if f.docsErr != nil {
		return "", f.docsErr
	}
	if len(types) == 0 {
		return "", nil
	}
	return f.docs[types[0]], nil
}

func (f *fakeKnowledge) Config(_ context.Context, t persona.AgentType) (*daycare.AgentConfig, error) {
	return f.configs[t], nil
}

func (f *fakeKnowledge) requested() []persona.AgentType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]persona.AgentType(nil), f.requests...)
}

// fakeStreamer replays fragments, optionally failing after them.
type fakeStreamer struct {
	mu        sync.Mutex
	fragments []string
	failErr   error
	openErr   error
	calls     int
	messages  []*schema.Message
	opts      ai.Options
}

func (f *fakeStreamer) StreamChat(_ context.Context, msgs []*schema.Message, opts ai.Options) (*schema.StreamReader[string], error) {
	f.mu.Lock()
	f.calls++
	f.messages = msgs
	f.opts = opts
	f.mu.Unlock()

	if f.openErr != nil {
		return nil, f.openErr
	}

	reader, writer := schema.Pipe[string](len(f.fragments) + 1)
	for _, fragment := range f.fragments {
		writer.Send(fragment, nil)
	}
	if f.failErr != nil {
		writer.Send("", f.failErr)
	}
	writer.Close()
	return reader, nil
}

func (f *fakeStreamer) lastCall() ([]*schema.Message, ai.Options, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages, f.opts, f.calls
}

func (f *fakeStreamer) system(t *testing.T) string {
	t.Helper()
	msgs, _, calls := f.lastCall()
	if calls == 0 || len(msgs) == 0 {
		t.Fatal("chat client was not called")
	}
	if msgs[0].Role != schema.System {
		t.Fatalf("first message role = %s, want system", msgs[0].Role)
	}
	return msgs[0].Content
}

// blockingStreamer holds the stream open until the invocation context ends.
type blockingStreamer struct {
	cancelled chan struct{}
}

func newBlockingStreamer() *blockingStreamer {
	return &blockingStreamer{cancelled: make(chan struct{})}
}

func (b *blockingStreamer) StreamChat(ctx context.Context, _ []*schema.Message, _ ai.Options) (*schema.StreamReader[string], error) {
	reader, writer := schema.Pipe[string](1)
	go func() {
		defer writer.Close()
		<-ctx.Done()
		close(b.cancelled)
		writer.Send("", ctx.Err())
	}()
	return reader, nil
}

type fakeProfiles struct {
	mu           sync.Mutex
	parents      map[string]*daycare.Parent
	teachers     map[string]*daycare.Teacher
	profiles     map[string]*daycare.ParentProfile
	counts       map[string]int
	parentErr    error
	teacherErr   error
	teacherCalls int
	countCalls   int
}

func (f *fakeProfiles) ParentByUserID(_ context.Context, userID string) (*daycare.Parent, error) {
	if f.parentErr != nil {
		return nil, f.parentErr
	}
	return f.parents[userID], nil
}

func (f *fakeProfiles) TeacherByUserID(_ context.Context, userID string) (*daycare.Teacher, error) {
	f.mu.Lock()
	f.teacherCalls++
	f.mu.Unlock()
	if f.teacherErr != nil {
		return nil, f.teacherErr
	}
	return f.teachers[userID], nil
}

func (f *fakeProfiles) ParentProfile(_ context.Context, parentID string) (*daycare.ParentProfile, error) {
	return f.profiles[parentID], nil
}

func (f *fakeProfiles) Teacher(_ context.Context, teacherID string) (*daycare.Teacher, error) {
	for _, t := range f.teachers {
		if t.ID == teacherID {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeProfiles) CountActiveChildren(_ context.Context, classroom string) (int, error) {
	f.mu.Lock()
	f.countCalls++
	f.mu.Unlock()
	return f.counts[classroom], nil
}

func descriptor(t *testing.T, agentType persona.AgentType) persona.Persona {
	t.Helper()
	p, ok := persona.NewMemoryStore(persona.Seed()).FindByType(agentType)
	if !ok {
		t.Fatalf("persona %s not seeded", agentType)
	}
	return p
}

func collect(t *testing.T, stream *EventStream) []chat.Event {
	t.Helper()
	events, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect err: %v", err)
	}
	return events
}

// assertTerminated checks that exactly one terminal event closes the sequence.
func assertTerminated(t *testing.T, events []chat.Event, want chat.EventType) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	for i, event := range events[:len(events)-1] {
		if event.Terminal() {
			t.Fatalf("terminal event %q at position %d of %d", event.Type, i, len(events))
		}
	}
	if last := events[len(events)-1]; last.Type != want {
		t.Fatalf("final event = %+v, want type %q", last, want)
	}
}

func textOf(events []chat.Event) []string {
	var out []string
	for _, event := range events {
		if event.Type == chat.EventText {
			out = append(out, event.Content)
		}
	}
	return out
}
