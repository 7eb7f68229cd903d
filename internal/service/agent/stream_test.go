package agent

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
)

func TestEventStreamEndsWithEOF(t *testing.T) {
	stream := StreamOf(chat.DoneEvent())

	event, err := stream.Recv()
	if err != nil || event.Type != chat.EventDone {
		t.Fatalf("Recv = %+v, %v", event, err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	stream.Close()
	stream.Close()
}

func TestEmitterDropsEventsAfterTerminal(t *testing.T) {
	stream := startStream(context.Background(), func(_ context.Context, e *emitter) {
		e.send(chat.TextEvent("a"))
		e.send(chat.DoneEvent())
		e.send(chat.TextEvent("late"))
		e.send(chat.ErrorEvent("late"))
	})

	want := []chat.Event{chat.TextEvent("a"), chat.DoneEvent()}
	if diff := cmp.Diff(want, collect(t, stream)); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestEventStreamCloseCancelsProducer(t *testing.T) {
	stopped := make(chan struct{})
	stream := startStream(context.Background(), func(ctx context.Context, e *emitter) {
		defer close(stopped)
		for e.send(chat.TextEvent("tick")) {
			if ctx.Err() != nil {
				return
			}
		}
	})

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv err: %v", err)
	}
	stream.Close()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still running after Close")
	}
}
