// Package assistant drives the tool-calling conversation loop between the
// user, the language model, and the local tool set.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stravagpt/stravagpt/internal/artifacts"
	"github.com/stravagpt/stravagpt/internal/llm"
	"github.com/stravagpt/stravagpt/internal/tools"
)

// Loop defaults; MaxToolRounds guards against a model that never stops
// requesting tools.
const (
	DefaultTemperature   = 0.3
	DefaultMaxToolRounds = 10
)

// ErrTooManyToolRounds reports that one question exceeded the tool-call
// round cap without producing a final answer.
var ErrTooManyToolRounds = errors.New("assistant: too many tool-call rounds")

// Completer is the completion API consumed by the loop.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool, temperature float32) (llm.Completion, error)
}

// Options tune one session.
type Options struct {
	Temperature   float32
	MaxToolRounds int
}

// Session owns one conversation: its history, the tool registry, and the
// artifacts produced along the way. One session per user; Ask serializes.
type Session struct {
	completer Completer
	registry  *tools.Registry
	logger    *slog.Logger

	temperature   float32
	maxToolRounds int

	mu      sync.Mutex
	history []llm.Message
}

// NewSession creates a session seeded with the system prompt. The prompt
// must already carry the injected context (schema, profile, stats).
func NewSession(log *slog.Logger, completer Completer, registry *tools.Registry, systemPrompt string, opts Options) (*Session, error) {
	if completer == nil {
		return nil, fmt.Errorf("assistant: completer is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("assistant: tool registry is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("assistant: system prompt is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Session{
		completer:     completer,
		registry:      registry,
		logger:        log.With(slog.String("component", "assistant")),
		temperature:   opts.Temperature,
		maxToolRounds: opts.MaxToolRounds,
		history:       []llm.Message{llm.SystemMessage(systemPrompt)},
	}, nil
}

// Ask appends the question, runs the completion loop until the model stops
// requesting tools, and returns the final answer plus the artifacts produced
// during this call. The artifact accumulator starts empty on every call, so
// a previous question's artifacts are never returned again.
//
// A completion failure is fatal to the turn and propagates; the history keeps
// everything appended so far, so the next question retries cleanly. Tool
// failures never surface here: executors report them in-band to the model.
func (s *Session) Ask(ctx context.Context, question string) (string, []artifacts.Ref, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, fmt.Errorf("assistant: question is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, llm.UserMessage(question))
	declarations := s.registry.Declarations()
	var produced []artifacts.Ref

	for round := 0; ; round++ {
		completion, err := s.completer.Complete(ctx, s.history, declarations, s.temperature)
		if err != nil {
			return "", nil, fmt.Errorf("assistant: completion: %w", err)
		}

		if completion.FinishReason != llm.FinishReasonToolCalls || len(completion.Message.ToolCalls) == 0 {
			answer, _ := completion.Message.Content.(string)
			s.history = append(s.history, llm.AssistantMessage(answer))
			s.logger.Debug("question answered",
				slog.Int("tool_rounds", round),
				slog.Int("artifacts", len(produced)),
			)
			return answer, produced, nil
		}

		if round >= s.maxToolRounds {
			return "", nil, fmt.Errorf("%w: gave up after %d rounds", ErrTooManyToolRounds, s.maxToolRounds)
		}

		// The assistant turn goes into the history first, then exactly one
		// tool result per requested call, in the order the model emitted them.
		s.history = append(s.history, completion.Message)
		for _, call := range completion.Message.ToolCalls {
			result := s.registry.Dispatch(ctx, call)
			s.history = append(s.history, llm.ToolMessage(call.ID, result.Content))
			produced = append(produced, result.Artifacts...)
		}
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}
