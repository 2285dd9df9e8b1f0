package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dcolombo/ordina/internal/mcp"
	"github.com/dcolombo/ordina/pkg/session"
	"github.com/rs/zerolog"
)

// maxToolTurns bounds the tool loop to prevent a runaway model
const maxToolTurns = 10

// ToolInvoker resolves model tool calls. Satisfied by *mcp.Client.
type ToolInvoker interface {
	Tools() []mcp.ToolDefinition
	CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// Runner executes the agent for one inbound message at a time
type Runner struct {
	def      Definition
	provider Provider
	tools    ToolInvoker
	logger   zerolog.Logger
}

// NewRunner creates a new agent runner
func NewRunner(def Definition, provider Provider, tools ToolInvoker, logger zerolog.Logger) (*Runner, error) {
	if def.Model == "" {
		return nil, fmt.Errorf("agent model is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool invoker is required")
	}

	return &Runner{
		def:      def,
		provider: provider,
		tools:    tools,
		logger:   logger.With().Str("component", "agent").Str("agent", def.Name).Logger(),
	}, nil
}

// Definition returns the runner's immutable agent definition
func (r *Runner) Definition() Definition {
	return r.def
}

// Run invokes the agent exactly once for the given prompt, using the
// session's stored history as conversation context. The user turn and
// the final assistant turn are persisted to the session. Returns the
// model's final text, which may be empty.
func (r *Runner) Run(ctx context.Context, sess *session.Session, prompt string) (string, error) {
	history, err := sess.History(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load session history: %w", err)
	}

	messages := make([]Message, 0, len(history)+1)
	for _, entry := range history {
		messages = append(messages, Message{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	if err := sess.Append(ctx, session.Message{Role: "user", Content: prompt}); err != nil {
		return "", fmt.Errorf("failed to persist user message: %w", err)
	}

	tools := r.buildTools()

	for turn := 0; turn < maxToolTurns; turn++ {
		response, err := r.provider.Call(ctx, Request{
			Model:        r.def.Model,
			Messages:     messages,
			Tools:        tools,
			Temperature:  r.def.Temperature,
			MaxTokens:    r.def.MaxTokens,
			SystemPrompt: r.def.Instructions,
		})
		if err != nil {
			return "", fmt.Errorf("provider call failed: %w", err)
		}

		if response.Usage != nil {
			r.logger.Debug().
				Str("session_key", sess.Key()).
				Int("input_tokens", response.Usage.InputTokens).
				Int("output_tokens", response.Usage.OutputTokens).
				Msg("Provider exchange completed")
		}

		if len(response.ToolCalls) == 0 {
			if response.Content != "" {
				if err := sess.Append(ctx, session.Message{
					Role:    "assistant",
					Content: response.Content,
				}); err != nil {
					return "", fmt.Errorf("failed to persist assistant message: %w", err)
				}
			}
			return response.Content, nil
		}

		messages = append(messages, Message{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		for _, call := range response.ToolCalls {
			messages = append(messages, r.executeToolCall(ctx, sess.Key(), call))
		}
	}

	return "", fmt.Errorf("maximum tool turns (%d) exceeded", maxToolTurns)
}

// executeToolCall runs one tool call and wraps its outcome as a tool
// message. Tool failures are reported back to the model, not raised.
func (r *Runner) executeToolCall(ctx context.Context, sessionKey string, call ToolCall) Message {
	start := time.Now()

	output, err := r.tools.CallTool(ctx, call.Name, call.Arguments)

	event := r.logger.Info()
	if err != nil {
		event = r.logger.Warn().Err(err)
		output = fmt.Sprintf("errore: %v", err)
	}
	event.
		Str("session_key", sessionKey).
		Str("tool", call.Name).
		Dur("duration", time.Since(start)).
		Msg("Tool call executed")

	return Message{
		Role:       "tool",
		Content:    output,
		ToolCallID: call.ID,
	}
}

// buildTools converts the cached MCP tool definitions to the
// provider-neutral form
func (r *Runner) buildTools() []Tool {
	defs := r.tools.Tools()

	tools := make([]Tool, 0, len(defs))
	for _, def := range defs {
		schema := map[string]interface{}{"type": "object"}
		if len(def.InputSchema) > 0 {
			if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
				r.logger.Warn().
					Err(err).
					Str("tool", def.Name).
					Msg("Skipping tool with unparseable input schema")
				continue
			}
		}
		tools = append(tools, Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		})
	}

	return tools
}
