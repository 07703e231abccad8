package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fwojciec/chatrelay"
	chathttp "github.com/fwojciec/chatrelay/http"
	chatjson "github.com/fwojciec/chatrelay/json"
	"github.com/fwojciec/chatrelay/sqlite"
)

type store interface {
	chatrelay.SessionRepository
	chatrelay.CredentialStore
}

// app holds the wired client components for one command invocation.
type app struct {
	gate    *chatrelay.AuthGate
	manager *chatrelay.Manager
	logger  *slog.Logger
	closers []io.Closer
}

// openApp wires storage, the relay client, the auth gate and the session
// manager from cfg, restoring the saved credential and sessions.
func openApp(ctx context.Context, cfg config) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	a := &app{}

	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "chat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	a.closers = append(a.closers, logFile)
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

	var st store
	switch cfg.Storage {
	case storageSQLite:
		db, err := sqlite.Open(ctx, filepath.Join(cfg.DataDir, "chat.db"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db)
		st = db
	default:
		st = chatjson.NewStore(filepath.Join(cfg.DataDir, "store"))
	}

	clientOpts := []chathttp.ClientOption{
		chathttp.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.AuthURL != "" {
		clientOpts = append(clientOpts, chathttp.WithAuthURL(cfg.AuthURL))
	}
	client := chathttp.NewClient(cfg.RelayURL, clientOpts...)

	a.gate = chatrelay.NewAuthGate(client, st, chatrelay.WithAuthLogger(a.logger))
	if err := a.gate.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	managerOpts := []chatrelay.ManagerOption{chatrelay.WithLogger(a.logger)}
	if cfg.Temperature != nil {
		managerOpts = append(managerOpts, chatrelay.WithTemperature(*cfg.Temperature))
	}
	a.manager = chatrelay.NewManager(st, client, a.gate, managerOpts...)
	if err := a.manager.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the database and log file.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
