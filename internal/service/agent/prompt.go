package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/chat"
)

const knowledgeHeader = "\n\n--- DOCUMENTOS DA BASE DE CONHECIMENTO ---\n"

// conversationTemplate lays out system, prior turns, then the new message.
var conversationTemplate = prompt.FromMessages(
	schema.FString,
	schema.SystemMessage("{system}"),
	schema.MessagesPlaceholder("history", true),
	schema.UserMessage("{query}"),
)

// composeSystem appends the knowledge section and identity block to the prompt.
func composeSystem(systemPrompt, knowledge, identityBlock string) string {
	system := systemPrompt
	if knowledge != "" {
		system += knowledgeHeader + knowledge
	}
	return system + identityBlock
}

// buildMessages renders the full message list for one turn. history is read, never modified.
func buildMessages(ctx context.Context, system string, history []chat.Turn, message string) ([]*schema.Message, error) {
	messages, err := conversationTemplate.Format(ctx, map[string]any{
		"system":  system,
		"history": chat.HistoryMessages(history),
		"query":   message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format conversation: %w", err)
	}
	return messages, nil
}
