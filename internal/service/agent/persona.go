package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/ai"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/knowledge"
)

const (
	defaultErrorMessage = "Erro ao processar mensagem"
	timeoutMessage      = "Tempo limite excedido ao processar mensagem"
)

// KnowledgeSource supplies knowledge documents and agent configuration.
type KnowledgeSource interface {
	Docs(ctx context.Context, agentTypes ...persona.AgentType) (string, error)
	Config(ctx context.Context, agentType persona.AgentType) (*daycare.AgentConfig, error)
}

// Streamer opens a streaming completion.
type Streamer interface {
	StreamChat(ctx context.Context, messages []*schema.Message, opts ai.Options) (*schema.StreamReader[string], error)
}

// Runtime holds the collaborators shared by every persona.
type Runtime struct {
	Knowledge KnowledgeSource
	Chat      Streamer
	// Timeout bounds one invocation. Zero disables the bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Persona is a runnable conversational role. Personas hold no per-request state.
type Persona struct {
	Descriptor persona.Persona
	// Context renders the identity block. Nil means no identity block.
	Context ContextBuilder

	runtime Runtime
}

// NewPersona binds a descriptor and its context builder to the runtime.
func NewPersona(descriptor persona.Persona, builder ContextBuilder, rt Runtime) *Persona {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	return &Persona{Descriptor: descriptor, Context: builder, runtime: rt}
}

// Run answers req. The returned stream yields text events in provider order
// and always ends with exactly one done or error event.
func (p *Persona) Run(ctx context.Context, req chat.Request) *EventStream {
	return startStream(ctx, func(ctx context.Context, e *emitter) {
		if p.runtime.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.runtime.Timeout)
			defer cancel()
		}

		logger := p.runtime.Logger.With("agent", string(p.Descriptor.Type))

		defer func() {
			if r := recover(); r != nil {
				logger.Error("persona panicked", "panic", r)
				e.send(chat.ErrorEvent(defaultErrorMessage))
			}
		}()

		start := time.Now()
		if err := p.respond(ctx, req, e); err != nil {
			logger.Error("persona failed", "error", err)
			e.send(chat.ErrorEvent(errorMessage(ctx, err)))
			return
		}
		e.send(chat.DoneEvent())
		logger.Debug("persona completed", "elapsed", time.Since(start))
	})
}

func (p *Persona) respond(ctx context.Context, req chat.Request, e *emitter) error {
	agentType := p.Descriptor.Type

	docs, err := p.runtime.Knowledge.Docs(ctx, agentType)
	if err != nil {
		return err
	}

	cfg, err := p.runtime.Knowledge.Config(ctx, agentType)
	if err != nil {
		return err
	}
	settings := knowledge.Resolve(cfg, p.Descriptor.DefaultPrompt)

	identityBlock := ""
	if p.Context != nil {
		var ac identity.AgentContext
		if req.Context != nil {
			ac = *req.Context
		}
		if identityBlock, err = p.Context.Build(ctx, ac); err != nil {
			return err
		}
	}

	messages, err := buildMessages(ctx, composeSystem(settings.SystemPrompt, docs, identityBlock), req.History, req.Message)
	if err != nil {
		return err
	}

	stream, err := p.runtime.Chat.StreamChat(ctx, messages, ai.Options{
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !e.send(chat.TextEvent(fragment)) {
			return nil
		}
	}
}

func errorMessage(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultErrorMessage
}
