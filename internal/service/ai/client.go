package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/config"
)

// ErrUnavailable is returned when no chat model is configured.
var ErrUnavailable = errors.New("assistente indisponível: modelo de linguagem não configurado")

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Options tune a single completion call. Zero values use the defaults:
// the configured model, temperature 0.7 and 1000 tokens.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client wraps a chat model with streaming and blocking completion calls.
type Client struct {
	chatModel model.BaseChatModel
	logger    *slog.Logger
}

// NewClient wraps an existing chat model. A nil model yields a client whose
// calls fail with ErrUnavailable.
func NewClient(chatModel model.BaseChatModel, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{chatModel: chatModel, logger: logger}
}

// NewClientFromConfig builds the Ark chat model described by cfg.
func NewClientFromConfig(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*Client, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewClient(chatModel, logger), nil
}

// Available reports whether a chat model is configured.
func (c *Client) Available() bool {
	return c != nil && c.chatModel != nil
}

// StreamChat opens a streaming completion and yields the non-empty text
// fragments in arrival order. The reader is single pass; callers must Close it.
// A provider failure mid-stream surfaces as an error from Recv.
func (c *Client) StreamChat(ctx context.Context, messages []*schema.Message, opts Options) (*schema.StreamReader[string], error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	stream, err := c.chatModel.Stream(ctx, messages, opts.modelOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	c.logger.Debug("completion stream opened", "messages", len(messages))

	return schema.StreamReaderWithConvert(stream, func(chunk *schema.Message) (string, error) {
		if chunk == nil || chunk.Content == "" {
			return "", schema.ErrNoValue
		}
		return chunk.Content, nil
	}), nil
}

// Chat runs a blocking completion and returns the full reply text.
func (c *Client) Chat(ctx context.Context, messages []*schema.Message, opts Options) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	response, err := c.chatModel.Generate(ctx, messages, opts.modelOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if response == nil {
		return "", nil
	}

	c.logger.Debug("completion generated", "messages", len(messages), "length", len(response.Content))
	return response.Content, nil
}

func (o Options) modelOptions() []model.Option {
	temperature := o.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	opts := []model.Option{
		model.WithTemperature(float32(temperature)),
		model.WithMaxTokens(maxTokens),
	}
	if o.Model != "" {
		opts = append(opts, model.WithModel(o.Model))
	}
	return opts
}
