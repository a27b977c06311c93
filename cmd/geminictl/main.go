// geminictl - command line access to the Gemini exchange REST API
//
// Public market data works without credentials. Private commands read
// GEMINI_API_KEY and GEMINI_API_SECRET from the environment or a .env file.
// Every command prints indented JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/web3guy0/gemini/gemini"
	"github.com/web3guy0/gemini/internal/config"
	"github.com/web3guy0/gemini/internal/database"
	"github.com/web3guy0/gemini/internal/notify"
	"github.com/web3guy0/gemini/rest"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// env is the state shared by all commands, filled in by the app's Before hook.
type env struct {
	out      io.Writer
	cfg      *config.Config
	client   *gemini.Client
	notifier notify.Notifier
}

func newApp(out io.Writer) *cli.App {
	e := &env{out: out}

	return &cli.App{
		Name:    "geminictl",
		Usage:   "Gemini exchange REST client",
		Version: rest.Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sandbox", Usage: "use the sandbox environment"},
			&cli.BoolFlag{Name: "debug", Usage: "log every request"},
		},
		Before:   e.setup,
		Commands: e.commands(),
	}
}

func (e *env) commands() []*cli.Command {
	var commands []*cli.Command
	commands = append(commands, e.publicCommands()...)
	commands = append(commands, e.privateCommands()...)
	commands = append(commands, e.feedCommands()...)
	return append(commands, e.reconcileCommand(), e.journalCommand())
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if c.Bool("sandbox") {
		cfg.Sandbox = true
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	e.cfg = cfg
	e.client = gemini.New(cfg.RESTOptions())
	e.notifier = notify.Nop{}

	if cfg.TelegramEnabled() {
		client := &http.Client{Timeout: cfg.Timeout}
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramEndpoint, client)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Telegram notifications disabled")
		} else {
			e.notifier = tg
		}
	}

	log.Debug().
		Bool("sandbox", cfg.Sandbox).
		Bool("authenticated", e.client.IsUpgraded()).
		Msg("geminictl ready")
	return nil
}

// print writes v as indented JSON.
func (e *env) print(v interface{}) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openJournal opens the configured database. Callers must Close it.
func (e *env) openJournal() (*database.Database, error) {
	db, err := database.New(e.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}

// requireArgs fails with the command's usage when fewer than n positional
// arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}
