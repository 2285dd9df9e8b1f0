package daemon

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/dcolombo/ordina/internal/telegram"
	"github.com/dcolombo/ordina/pkg/session"
	"github.com/rs/zerolog"
)

// agentRunner runs the agent once for an inbound prompt.
// Satisfied by *agent.Runner.
type agentRunner interface {
	Run(ctx context.Context, sess *session.Session, prompt string) (string, error)
}

// messageSender delivers replies to a chat. Satisfied by *telegram.Bot.
type messageSender interface {
	SendMessage(chatID int64, text string) error
	SendTyping(chatID int64) error
}

// Router connects Telegram updates to the agent: commands get static
// replies, everything else becomes an agent prompt for that chat's
// session.
type Router struct {
	logger   zerolog.Logger
	registry *session.Registry
	runner   agentRunner
	sender   messageSender
}

// NewRouter creates a new message router
func NewRouter(registry *session.Registry, runner agentRunner, sender messageSender, log zerolog.Logger) *Router {
	return &Router{
		logger:   log.With().Str("component", "router").Logger(),
		registry: registry,
		runner:   runner,
		sender:   sender,
	}
}

// Bind registers the router's commands and message callback
func (r *Router) Bind(commands *telegram.Commands, handler *telegram.Handler) {
	commands.Register("start", r.HandleStart)
	commands.Register("help", r.HandleHelp)
	commands.Register("reset", r.HandleReset)
	handler.SetOnMessage(r.HandleText)
}

// HandleStart replies with the welcome message
func (r *Router) HandleStart(ctx telegram.CommandContext) error {
	return r.sender.SendMessage(ctx.ChatID, welcomeText)
}

// HandleHelp replies with usage hints
func (r *Router) HandleHelp(ctx telegram.CommandContext) error {
	return r.sender.SendMessage(ctx.ChatID, helpText)
}

// HandleReset wipes the chat's conversation memory. The confirmation
// is sent even when there was nothing to wipe.
func (r *Router) HandleReset(ctx telegram.CommandContext) error {
	if err := r.registry.Reset(context.Background(), ctx.ChatID); err != nil {
		r.logger.Error().
			Err(err).
			Int64("chat_id", ctx.ChatID).
			Msg("Failed to reset session")
		return r.sender.SendMessage(ctx.ChatID, apologyText)
	}

	r.logger.Info().
		Int64("chat_id", ctx.ChatID).
		Msg("Session reset")

	return r.sender.SendMessage(ctx.ChatID, resetText)
}

// HandleText runs the agent for a plain text message and replies with
// its final output. Agent failures never propagate to the caller: the
// user gets an apology and the bot keeps running.
func (r *Router) HandleText(mctx telegram.MessageContext) error {
	text := strings.TrimSpace(mctx.Text)
	if text == "" {
		return nil
	}

	logger := r.logger.With().
		Str("trace_id", uuid.NewString()).
		Int64("chat_id", mctx.ChatID).
		Logger()

	logger.Info().
		Str("username", mctx.Username).
		Msg("Processing user message")

	// Best effort: a failed chat action must not block the reply
	if err := r.sender.SendTyping(mctx.ChatID); err != nil {
		logger.Warn().Err(err).Msg("Failed to send typing action")
	}

	sess := r.registry.GetOrCreate(mctx.ChatID)

	output, err := r.runner.Run(context.Background(), sess, text)
	if err != nil {
		logger.Error().Err(err).Msg("Agent run failed")
		return r.sender.SendMessage(mctx.ChatID, apologyText)
	}

	if output == "" {
		output = noReplyText
	}

	return r.sender.SendMessage(mctx.ChatID, output)
}
