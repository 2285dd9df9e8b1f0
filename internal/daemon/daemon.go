package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dcolombo/ordina/internal/config"
	"github.com/dcolombo/ordina/internal/logger"
	"github.com/dcolombo/ordina/internal/mcp"
	"github.com/dcolombo/ordina/internal/telegram"
	"github.com/dcolombo/ordina/pkg/agent"
	"github.com/dcolombo/ordina/pkg/session"
)

// Daemon wires the Telegram bot, the agent and the orders MCP server
// into one long-running service.
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	// Core modules
	store     *session.Store
	registry  *session.Registry
	mcpClient *mcp.Client
	provider  agent.Provider
	runner    *agent.Runner

	// Telegram
	bot      *telegram.Bot
	handler  *telegram.Handler
	commands *telegram.Commands

	// Internal
	router    *Router
	lifecycle *LifecycleManager

	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// Status describes the daemon's runtime state
type Status struct {
	Running   bool
	StartTime time.Time
	Uptime    time.Duration
}

// New creates a new daemon instance. Components are constructed in
// dependency order; nothing touches the network until Start.
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := d.initialize(); err != nil {
		cancel()
		return nil, err
	}

	return d, nil
}

// initialize constructs all core modules
func (d *Daemon) initialize() error {
	cfg := d.config
	log := d.logger

	dbPath := cfg.Sessions.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.DataDir, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := session.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	d.store = store
	d.registry = session.NewRegistry(store)
	log.Info().Str("path", dbPath).Msg("Session store initialized")

	d.mcpClient = mcp.NewClient("orders", cfg.MCP.Command, cfg.MCP.Script)
	log.Info().
		Str("command", cfg.MCP.Command).
		Str("script", cfg.MCP.Script).
		Msg("MCP client initialized")

	apiKey := cfg.AI.OpenAIAPIKey
	if cfg.Agent.Provider == "anthropic" {
		apiKey = cfg.AI.AnthropicAPIKey
	}
	provider, err := agent.NewProvider(cfg.Agent.Provider, apiKey)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create provider: %w", err)
	}
	d.provider = provider

	runner, err := agent.NewRunner(agent.Definition{
		Name:         cfg.Agent.Name,
		Instructions: agentInstructions,
		Model:        cfg.Agent.Model,
		Temperature:  cfg.Agent.Temperature,
		MaxTokens:    cfg.Agent.MaxTokens,
	}, provider, d.mcpClient, log.GetZerolog())
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create agent runner: %w", err)
	}
	d.runner = runner
	log.Info().
		Str("agent", cfg.Agent.Name).
		Str("provider", provider.Name()).
		Str("model", cfg.Agent.Model).
		Msg("Agent runner initialized")

	bot, err := telegram.New(&cfg.Telegram, log)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	d.bot = bot
	d.handler = telegram.NewHandler(bot)
	d.commands = telegram.NewCommands(bot)
	bot.SetMessageHandler(d.handler)
	bot.SetCommandHandler(d.commands)

	d.router = NewRouter(d.registry, d.runner, d.bot, log.GetZerolog())
	d.router.Bind(d.commands, d.handler)

	d.lifecycle = NewLifecycleManager(cfg.DataDir, log.GetZerolog())

	return nil
}

// Start starts the daemon. The MCP subprocess must come up and serve
// its tool list before the bot accepts any update.
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	d.logger.Info().Msg("Starting ordina daemon")

	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if err := d.mcpClient.Start(d.ctx); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	d.logger.Info().
		Int("tools", len(d.mcpClient.Tools())).
		Msg("MCP server ready")

	if err := d.bot.Start(); err != nil {
		return fmt.Errorf("failed to start telegram bot: %w", err)
	}

	d.logger.Info().Msg("Daemon started successfully")

	return nil
}

// Stop stops the daemon gracefully, in reverse start order. Shutdown
// errors are logged, not propagated.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info().Msg("Stopping ordina daemon")

	if err := d.bot.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop telegram bot")
	}

	if err := d.mcpClient.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop MCP server")
	}

	if err := d.store.Close(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to close session store")
	}

	if err := d.lifecycle.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.cancel()

	d.logger.Info().Msg("Daemon stopped")

	return nil
}

// Wait blocks until SIGINT or SIGTERM, then stops the daemon
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	d.logger.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// Status returns the daemon's runtime state
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{Running: d.running}
	if d.running {
		status.StartTime = d.startTime
		status.Uptime = time.Since(d.startTime)
	}

	return status
}

// GetRouter returns the message router
func (d *Daemon) GetRouter() *Router {
	return d.router
}

// GetRegistry returns the session registry
func (d *Daemon) GetRegistry() *session.Registry {
	return d.registry
}
