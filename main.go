package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/afittestide/orchat/storage"
	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	isatty "github.com/mattn/go-isatty"
	"go.uber.org/fx"
	"golang.org/x/term"
)

type runCmd struct{}

type versionCmd struct{}

type updateCmd struct {
	Check bool `help:"Only report whether a newer release exists"`
}

type keySetCmd struct{}

type keyDeleteCmd struct{}

type historyClearCmd struct{}

type historyCmd struct {
	Clear historyClearCmd `cmd:"" help:"Delete the saved prompt history"`
}

type keyCmd struct {
	Set    keySetCmd    `cmd:"" help:"Store the OpenRouter API key in the system keyring"`
	Delete keyDeleteCmd `cmd:"" help:"Remove the OpenRouter API key from the system keyring"`
}

var program *tea.Program

var cli struct {
	Debug            bool   `help:"Enable debug logging"`
	Config           string `help:"Path to the config file" type:"path"`
	ConversationsDir string `help:"Directory for saved conversations" type:"path"`
	Model            string `help:"Model id to start the session with"`

	Run     runCmd     `cmd:"" default:"1" help:"Start an interactive chat"`
	Version versionCmd `cmd:"version" help:"Print version information"`
	Update  updateCmd  `cmd:"update" help:"Update orchat to the latest release"`
	Key     keyCmd     `cmd:"key" help:"Manage the OpenRouter API key"`
	History historyCmd `cmd:"history" help:"Manage the prompt history"`
}

// Update the version as part of the version release process
var version = "0.1.0"

// updateAvailableMsg is sent to the TUI when a newer release exists
type updateAvailableMsg struct{}

func (v versionCmd) Run() error {
	fmt.Printf("orchat v%s\n", version)
	return nil
}

func (r *runCmd) Run() error {
	startTime := time.Now()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Println("This program requires a terminal to run.")
		fmt.Println("Please run it in a terminal emulator.")
		return nil
	}

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			ProvideLogger,
			ProvideConfig,
			ProvideStorage,
			ProvideHistoryStore,
			ProvideConversationStore,
			ProvideCompleter,
			ProvideTUIModel,
			StartTUI,
		),
		fx.Invoke(func(*tea.Program) {}),
	)
	if err := app.Err(); err != nil {
		return unwrapFxError(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	slog.Debug("[TIMING] startup completed", "duration", time.Since(startTime))

	go func() {
		if AutoCheckForUpdates(version) && program != nil {
			program.Send(updateAvailableMsg{})
		}
	}()

	_, runErr := program.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		slog.Warn("shutdown did not complete cleanly", "error", err)
	}
	return runErr
}

// unwrapFxError surfaces the missing key error without fx's provider chain
func unwrapFxError(err error) error {
	if errors.Is(err, ErrMissingAPIKey) {
		return ErrMissingAPIKey
	}
	return err
}

func (u *updateCmd) Run() error {
	if u.Check {
		latest, hasUpdate, err := CheckForUpdates(version)
		if err != nil {
			return err
		}
		if !hasUpdate {
			fmt.Printf("orchat v%s is up to date\n", version)
			return nil
		}
		fmt.Printf("orchat v%s is available (you have v%s). Run: %s\n", latest.Version, version, GetUpdateCommand())
		return nil
	}

	fmt.Println("Checking for updates...")
	return SelfUpdate(version)
}

func (k *keySetCmd) Run() error {
	key, err := readAPIKey(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	if err := SaveAPIKeyToKeyring(keyringProvider, key); err != nil {
		return err
	}
	fmt.Printf("API key %s saved to the system keyring\n", maskAPIKey(key))
	return nil
}

func (k *keyDeleteCmd) Run() error {
	if err := DeleteAPIKeyFromKeyring(keyringProvider); err != nil {
		return err
	}
	fmt.Println("API key removed from the system keyring")
	return nil
}

func (h *historyClearCmd) Run() error {
	config, err := LoadConfig(cli.Config)
	if err != nil {
		return err
	}
	removed, err := clearPromptHistory(config.Storage.DatabasePath)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d prompts from history\n", removed)
	return nil
}

// clearPromptHistory empties the prompt history database at dbPath and returns
// how many prompts it held
func clearPromptHistory(dbPath string) (int64, error) {
	db, err := storage.InitDB(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		return 0, err
	}
	if err := storage.NewHistoryStore(db, storage.HistoryConfig{}).ClearPromptHistory(); err != nil {
		return 0, err
	}
	if err := db.Vacuum(); err != nil {
		slog.Warn("failed to vacuum storage", "error", err)
	}
	slog.Info("prompt history cleared", "removed", stats["prompt_history"])
	return stats["prompt_history"], nil
}

// readAPIKey prompts without echo on a terminal and reads a line otherwise
func readAPIKey(in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "OpenRouter API key: ")
	var key string
	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		key = string(raw)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("API key cannot be empty")
	}
	return key, nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("orchat"),
		kong.Description("Chat with OpenRouter models from the terminal"),
		kong.UsageOnError(),
	)

	if err := initLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.Info("orchat starting", "version", version, "command", ctx.Command())

	if err := ctx.Run(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
