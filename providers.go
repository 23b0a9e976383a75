package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/afittestide/orchat/storage"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// logLevel is shared by every handler so the config can adjust it after startup
var logLevel = new(slog.LevelVar)

func logFilePath() (string, error) {
	logDir := dataDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}
	return filepath.Join(logDir, "orchat.log"), nil
}

// initLogger routes slog to a rotating file. Nothing is logged to stdout.
func initLogger() error {
	logPath, err := logFilePath()
	if err != nil {
		return err
	}

	// Set up lumberjack for log rotation
	logFile := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	logLevel.Set(slog.LevelInfo)
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// parseLogLevel maps a config level name to a slog level
func parseLogLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// LoggerResult holds the configured logger
type LoggerResult struct {
	fx.Out
	Logger *slog.Logger
}

// ProvideLogger returns the process logger set up by initLogger
func ProvideLogger() LoggerResult {
	return LoggerResult{Logger: slog.Default()}
}

// ProvideConfig loads the configuration and applies command line overrides
func ProvideConfig(logger *slog.Logger) (*Config, error) {
	logger.Info("loading configuration", "path", cli.Config)
	config, err := LoadConfig(cli.Config)
	if err != nil {
		return nil, err
	}

	if !cli.Debug {
		level, ok := parseLogLevel(config.Logging.Level)
		if !ok {
			logger.Warn("unknown log level, using info", "level", config.Logging.Level)
		}
		logLevel.Set(level)
	}

	if cli.ConversationsDir != "" {
		config.Storage.ConversationsDir = cli.ConversationsDir
	}
	if cli.Model != "" {
		if config.FindModel(cli.Model) == nil {
			// Session-only entry, not written to the config file
			config.Models = append(config.Models, Model{ID: cli.Model, Name: cli.Model})
		}
		config.DefaultModel = cli.Model
	}

	if config.OpenRouter.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	logger.Info("configuration loaded", "model", config.DefaultModel, "models", len(config.Models))
	return config, nil
}

// StorageParams holds parameters for storage initialization
type StorageParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *Config
	Logger    *slog.Logger
}

// StorageResult holds the storage initialization result
type StorageResult struct {
	fx.Out
	DB *storage.DB
}

// ProvideStorage initializes the SQLite storage database
func ProvideStorage(params StorageParams) (StorageResult, error) {
	params.Logger.Info("initializing storage", "database_path", params.Config.Storage.DatabasePath)
	db, err := storage.InitDB(params.Config.Storage.DatabasePath)
	if err != nil {
		params.Logger.Error("failed to initialize storage", "error", err)
		return StorageResult{}, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if stats, err := db.Stats(); err == nil {
		params.Logger.Info("storage initialized successfully", "prompt_history", stats["prompt_history"])
	} else {
		params.Logger.Warn("failed to read storage stats", "error", err)
	}

	// Register cleanup on shutdown
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("closing storage")
			if err := db.Close(); err != nil {
				params.Logger.Error("failed to close storage", "error", err)
				return err
			}
			return nil
		},
	})

	return StorageResult{DB: db}, nil
}

// ProvideHistoryStore creates the prompt history store. Old entries are pruned on startup.
func ProvideHistoryStore(db *storage.DB, config *Config, logger *slog.Logger) *storage.HistoryStore {
	if !config.History.Enabled {
		logger.Info("prompt history disabled")
		return nil
	}
	store := storage.NewHistoryStore(db, storage.HistoryConfig{
		MaxEntries: config.History.MaxEntries,
		MaxAgeDays: config.History.MaxAgeDays,
	})
	if err := store.CleanupOldHistory(); err != nil {
		logger.Warn("failed to prune prompt history", "error", err)
	} else if err := db.Vacuum(); err != nil {
		logger.Warn("failed to vacuum storage", "error", err)
	}
	return store
}

// ProvideConversationStore creates the saved conversations store
func ProvideConversationStore(config *Config, logger *slog.Logger) *storage.ConversationStore {
	logger.Info("conversations directory", "path", config.Storage.ConversationsDir)
	return storage.NewConversationStore(config.Storage.ConversationsDir)
}

// ProvideCompleter creates the OpenRouter completion client
func ProvideCompleter(config *Config, logger *slog.Logger) (Completer, error) {
	client, err := NewOpenRouterClient(config.OpenRouter, config.OpenRouter.APIKey, config.DefaultModel)
	if err != nil {
		logger.Error("failed to create OpenRouter client", "error", err)
		return nil, err
	}
	logger.Info("OpenRouter client ready", "base_url", config.OpenRouter.BaseURL)
	return client, nil
}

// TUIModelParams holds parameters for TUI model creation
type TUIModelParams struct {
	fx.In
	Config        *Config
	Completer     Completer
	Conversations *storage.ConversationStore
	History       *storage.HistoryStore `optional:"true"`
}

// ProvideTUIModel creates and returns the TUI model
func ProvideTUIModel(params TUIModelParams) *TUIModel {
	return NewTUIModel(params.Config, params.Completer, params.Conversations, params.History)
}

// TUIProgramParams holds parameters for TUI program initialization
type TUIProgramParams struct {
	fx.In
	Model  *TUIModel
	Logger *slog.Logger
}

// StartTUI creates the TUI program
func StartTUI(params TUIProgramParams) *tea.Program {
	params.Logger.Info("creating TUI program")

	// Create the bubbletea program with alt screen and mouse support
	prog := tea.NewProgram(params.Model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Set global program reference so async operations can send messages
	program = prog

	return prog
}
