// Command todo is a terminal client for the remote todo API.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/todo-client/internal/api"
	"github.com/nhle/todo-client/internal/app"
	"github.com/nhle/todo-client/internal/auth"
	"github.com/nhle/todo-client/internal/credential"
	"github.com/nhle/todo-client/internal/model"
	"github.com/nhle/todo-client/internal/session"
	"github.com/nhle/todo-client/internal/store"
	appsync "github.com/nhle/todo-client/internal/sync"
	"github.com/nhle/todo-client/internal/todos"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	flags.String("base-url", "", "override api.base_url")
	flags.String("log-level", "", "override log.level (debug, info, warn, error)")
	flags.String("session-backend", "", "override session.backend (keyring or sqlite)")
	initConfig := flags.Bool("init-config", false, "write the effective config to --config and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := model.NewViper(*configPath)
	for key, name := range map[string]string{
		"api.base_url":    "base-url",
		"log.level":       "log-level",
		"session.backend": "session-backend",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	cfg, err := model.LoadConfigFrom(v)
	if err != nil {
		return err
	}

	if *initConfig {
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			return err
		}
		fmt.Println("Wrote", *configPath)
		return nil
	}

	logger, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := openCredentials(cfg.Session, db)
	if err != nil {
		return err
	}

	sess := session.New(creds, cfg.Session.Key)
	client := api.NewClient(cfg.API.BaseURL, sess, api.Options{
		Timeout:      time.Duration(cfg.API.TimeoutSec) * time.Second,
		UpdateMethod: cfg.API.UpdateMethod,
		Logger:       logger,
	})

	ctrl := todos.NewController(client, todos.Policy{
		ConfirmDelete:        cfg.Todos.ConfirmDelete,
		RollbackFailedToggle: cfg.Todos.RollbackFailedToggle,
	})

	var reconciler *appsync.Reconciler
	if cfg.Todos.RefreshIntervalSec > 0 {
		reconciler = appsync.New(ctrl, time.Duration(cfg.Todos.RefreshIntervalSec)*time.Second)
		defer reconciler.Stop()
	}

	logger.Info("starting",
		"base_url", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
		"refresh_interval_sec", cfg.Todos.RefreshIntervalSec)

	root := app.New(app.Deps{
		Auth:       auth.NewService(client, sess, logger),
		Todos:      ctrl,
		Reconciler: reconciler,
		Prefs:      db,
		Logger:     logger,
	})

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// openCredentials returns the session token store selected by cfg.
func openCredentials(cfg model.SessionConfig, db *store.SQLiteStore) (credential.Store, error) {
	if cfg.Backend == model.SessionBackendSQLite {
		return db.Credentials(), nil
	}
	ring, err := credential.OpenKeyring(cfg.KeyringDir)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// openLogger writes structured logs to the debug log file. The terminal is
// owned by the UI, so nothing is logged to stderr.
func openLogger(cfg model.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Level))); err != nil {
		return nil, nil, fmt.Errorf("log.level: %w", err)
	}

	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(cfg.File, "")
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
