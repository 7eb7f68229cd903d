package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrNoExtraction is returned when the model reply carries no JSON object.
var ErrNoExtraction = errors.New("no routine information could be extracted")

// DiaperNotApplicable is reported when the text does not mention diapers.
const DiaperNotApplicable = "NOT_APPLICABLE"

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// RoutineExtraction is the structured form of a teacher's free-text routine note.
type RoutineExtraction struct {
	Mood          *string `json:"mood"`
	FoodIntakePct *int    `json:"food_intake_pct"`
	SleepMinutes  *int    `json:"sleep_minutes"`
	Diaper        string  `json:"diaper"`
	Notes         *string `json:"notes"`
}

// Completer is the blocking half of the chat client.
type Completer interface {
	Chat(ctx context.Context, messages []*schema.Message, opts Options) (string, error)
}

// Interpreter turns free-text routine descriptions into RoutineExtraction values.
type Interpreter struct {
	chain compose.Runnable[map[string]any, string]
}

// NewInterpreter compiles the extraction chain: prompt template followed by
// a low temperature completion.
func NewInterpreter(ctx context.Context, completer Completer) (*Interpreter, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(extractionPrompt),
		schema.UserMessage("{request}"),
	)

	complete := compose.InvokableLambda(func(ctx context.Context, messages []*schema.Message) (string, error) {
		return completer.Chat(ctx, messages, Options{Temperature: 0.1, MaxTokens: 500})
	})

	chain := compose.NewChain[map[string]any, string]()
	chain.AppendChatTemplate(template)
	chain.AppendLambda(complete)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extraction chain: %w", err)
	}
	return &Interpreter{chain: runnable}, nil
}

// Interpret extracts routine fields from text. childName is optional.
func (i *Interpreter) Interpret(ctx context.Context, text, childName string) (*RoutineExtraction, error) {
	request := "Extraia as informações: " + text
	if strings.TrimSpace(childName) != "" {
		request = fmt.Sprintf("Extraia as informações sobre a criança %q: %s", childName, text)
	}

	reply, err := i.chain.Invoke(ctx, map[string]any{"request": request})
	if err != nil {
		return nil, fmt.Errorf("extraction chain failed: %w", err)
	}

	return ParseRoutineExtraction(reply)
}

// ParseRoutineExtraction reads the first JSON object embedded in reply.
func ParseRoutineExtraction(reply string) (*RoutineExtraction, error) {
	match := jsonObjectPattern.FindString(reply)
	if match == "" {
		return nil, ErrNoExtraction
	}

	var raw struct {
		Mood          string   `json:"mood"`
		FoodIntakePct *float64 `json:"food_intake_pct"`
		SleepMinutes  *float64 `json:"sleep_minutes"`
		Diaper        string   `json:"diaper"`
		Notes         string   `json:"notes"`
	}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}

	out := &RoutineExtraction{
		Mood:          optionalString(raw.Mood),
		FoodIntakePct: roundedInt(raw.FoodIntakePct),
		SleepMinutes:  roundedInt(raw.SleepMinutes),
		Diaper:        raw.Diaper,
		Notes:         optionalString(raw.Notes),
	}
	if out.Diaper == "" {
		out.Diaper = DiaperNotApplicable
	}
	return out, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func roundedInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

const extractionPrompt = `Você é um assistente que extrai informações estruturadas de texto livre sobre rotina de crianças em uma creche.

Dado um texto descritivo, extraia as seguintes informações em formato JSON:

- mood: VERY_HAPPY | HAPPY | NEUTRAL | SAD | TIRED | SICK (humor da criança)
- food_intake_pct: número de 0 a 100 (percentual de comida ingerida)
- sleep_minutes: número (minutos que dormiu)
- diaper: CLEAN | WET | DIRTY | NOT_APPLICABLE (estado da fralda)
- notes: string (observações adicionais)

Regras:
- "Comeu tudo" = 100%
- "Comeu bem" = 75%
- "Comeu parcialmente" = 50%
- "Comeu pouco" = 25%
- "Não comeu" = 0%
- Se não mencionar alimentação, retorne null para food_intake_pct
- Se não mencionar sono, retorne null para sleep_minutes
- Se não mencionar fralda, retorne "NOT_APPLICABLE"
- Se não mencionar humor explicitamente, tente inferir do contexto

Responda APENAS com o JSON, sem explicações.`
