package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/dcolombo/ordina/internal/config"
	"github.com/dcolombo/ordina/internal/logger"
	"github.com/rs/zerolog"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	config *config.TelegramConfig
	logger zerolog.Logger

	// Handlers
	messageHandler MessageHandler
	commandHandler CommandHandler

	// State
	running bool
	updates tgbotapi.UpdatesChannel
}

// MessageHandler handles incoming text messages
type MessageHandler interface {
	HandleMessage(update tgbotapi.Update) error
}

// CommandHandler handles bot commands
type CommandHandler interface {
	HandleCommand(update tgbotapi.Update) error
}

// New creates a new Telegram bot instance
func New(cfg *config.TelegramConfig, log *logger.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram config is required")
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot := &Bot{
		api:    api,
		config: cfg,
		logger: log.GetZerolog().With().Str("component", "telegram").Logger(),
	}

	bot.logger.Info().
		Str("username", api.Self.UserName).
		Int64("id", api.Self.ID).
		Msg("Telegram bot authenticated")

	return bot, nil
}

// SetMessageHandler sets the handler for plain text messages
func (b *Bot) SetMessageHandler(handler MessageHandler) {
	b.messageHandler = handler
}

// SetCommandHandler sets the handler for bot commands
func (b *Bot) SetCommandHandler(handler CommandHandler) {
	b.commandHandler = handler
}

// Start starts the bot and begins processing updates
func (b *Bot) Start() error {
	if b.running {
		return fmt.Errorf("bot is already running")
	}

	b.logger.Info().Msg("Starting Telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollTimeout
	if u.Timeout <= 0 {
		u.Timeout = 60
	}

	updates := b.api.GetUpdatesChan(u)
	b.updates = updates
	b.running = true

	go b.processUpdates()

	b.logger.Info().Msg("Telegram bot started")

	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	if !b.running {
		return fmt.Errorf("bot is not running")
	}

	b.logger.Info().Msg("Stopping Telegram bot")

	b.running = false
	b.api.StopReceivingUpdates()

	b.logger.Info().Msg("Telegram bot stopped")

	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates() {
	for update := range b.updates {
		if !b.running {
			break
		}

		if err := b.handleUpdate(update); err != nil {
			b.logger.Error().
				Err(err).
				Int("update_id", update.UpdateID).
				Msg("Failed to handle update")
		}
	}
}

// handleUpdate routes an update to the appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	if update.Message.IsCommand() && b.commandHandler != nil {
		return b.commandHandler.HandleCommand(update)
	}

	if b.messageHandler != nil {
		return b.messageHandler.HandleMessage(update)
	}

	return nil
}

// SendMessage sends a Markdown-formatted text message
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	b.logger.Debug().
		Int64("chat_id", chatID).
		Msg("Message sent")

	return nil
}

// SendTyping sends a "typing..." chat action
func (b *Bot) SendTyping(chatID int64) error {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err := b.api.Request(action)
	if err != nil {
		return fmt.Errorf("failed to send typing action: %w", err)
	}
	return nil
}

// Username returns the authenticated bot username
func (b *Bot) Username() string {
	return b.api.Self.UserName
}
