package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Handler implements text message handling for Telegram
type Handler struct {
	bot    *Bot
	logger zerolog.Logger

	// Callback for processing messages
	onMessage func(MessageContext) error
}

// MessageContext contains message metadata
type MessageContext struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	Text      string
	Timestamp time.Time
	IsGroup   bool
}

// NewHandler creates a new message handler
func NewHandler(bot *Bot) *Handler {
	return &Handler{
		bot:    bot,
		logger: bot.logger.With().Str("module", "handler").Logger(),
	}
}

// HandleMessage processes incoming messages
func (h *Handler) HandleMessage(update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message

	ctx := MessageContext{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
		Timestamp: time.Unix(int64(msg.Date), 0),
		IsGroup:   msg.Chat.IsGroup() || msg.Chat.IsSuperGroup(),
	}
	if msg.From != nil {
		ctx.UserID = msg.From.ID
		ctx.Username = msg.From.UserName
	}

	// Non-text updates (photos, stickers, voice notes) carry no prompt
	if ctx.Text == "" {
		h.logger.Debug().
			Int64("chat_id", ctx.ChatID).
			Msg("Ignoring message without text")
		return nil
	}

	h.logger.Debug().
		Int64("chat_id", ctx.ChatID).
		Int64("user_id", ctx.UserID).
		Str("username", ctx.Username).
		Bool("is_group", ctx.IsGroup).
		Msg("Message received")

	if h.onMessage != nil {
		return h.onMessage(ctx)
	}

	return nil
}

// SetOnMessage sets the message callback
func (h *Handler) SetOnMessage(callback func(MessageContext) error) {
	h.onMessage = callback
}

// SendResponse sends a response to a message
func (h *Handler) SendResponse(ctx MessageContext, text string) error {
	return h.bot.SendMessage(ctx.ChatID, text)
}

// SendTyping sends a typing action for the message's chat
func (h *Handler) SendTyping(ctx MessageContext) error {
	return h.bot.SendTyping(ctx.ChatID)
}
