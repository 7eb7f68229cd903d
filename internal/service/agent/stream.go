package agent

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
)

// EventStream is the consumer side of one persona invocation. Events arrive
// in order and the stream ends with io.EOF after the terminal event.
// Closing the stream early cancels the producer and its provider call.
type EventStream struct {
	reader *schema.StreamReader[chat.Event]
	cancel context.CancelFunc
	once   sync.Once
}

// Recv returns the next event, or io.EOF once the stream is exhausted.
func (s *EventStream) Recv() (chat.Event, error) {
	return s.reader.Recv()
}

// Close releases the stream. It is safe to call more than once.
func (s *EventStream) Close() {
	s.once.Do(func() {
		s.cancel()
		s.reader.Close()
	})
}

// Collect drains the stream and closes it.
func (s *EventStream) Collect() ([]chat.Event, error) {
	defer s.Close()

	var events []chat.Event
	for {
		event, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// emitter is the producer side. Send reports false once the consumer is gone.
type emitter struct {
	writer *schema.StreamWriter[chat.Event]
	done   bool
}

func (e *emitter) send(event chat.Event) bool {
	if e.done {
		return false
	}
	if closed := e.writer.Send(event, nil); closed {
		e.done = true
		return false
	}
	if event.Terminal() {
		e.done = true
	}
	return !e.done
}

// startStream runs produce on its own goroutine under ctx and returns the
// consumer side. produce must stop once send returns false.
func startStream(ctx context.Context, produce func(ctx context.Context, e *emitter)) *EventStream {
	ctx, cancel := context.WithCancel(ctx)
	reader, writer := schema.Pipe[chat.Event](8)

	go func() {
		defer cancel()
		defer writer.Close()
		produce(ctx, &emitter{writer: writer})
	}()

	return &EventStream{reader: reader, cancel: cancel}
}

// StreamOf returns an already finished stream replaying events.
func StreamOf(events ...chat.Event) *EventStream {
	return &EventStream{
		reader: schema.StreamReaderFromArray(events),
		cancel: func() {},
	}
}
