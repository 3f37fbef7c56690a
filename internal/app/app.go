// Package app assembles storage, events and the workspace from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammed-shakir/mapnotes/internal/core/config"
	"github.com/mohammed-shakir/mapnotes/internal/events"
	h3mapper "github.com/mohammed-shakir/mapnotes/internal/mapper/h3"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
	"github.com/mohammed-shakir/mapnotes/internal/projects"
	"github.com/mohammed-shakir/mapnotes/internal/report"
	"github.com/mohammed-shakir/mapnotes/internal/storage"
	"github.com/mohammed-shakir/mapnotes/internal/workspace"
)

type App struct {
	KV        storage.KV
	Workspace *workspace.Workspace
	Publisher events.Publisher

	closers []func() error
}

// New opens storage, starts the event publisher and loads the projects.
// On error everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	openCtx, cancel := context.WithTimeout(ctx, cfg.Storage.OpTimeout)
	defer cancel()
	a.KV, err = storage.Open(openCtx, cfg.StorageOpenConfig())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.KV.Close)

	switch strings.ToLower(cfg.Events.Driver) {
	case "kafka":
		k, kerr := events.NewKafka(cfg.Events.BrokerList(), cfg.Events.Topic, cfg.Events.Queue, log)
		if kerr != nil {
			return nil, fmt.Errorf("start event publisher: %w", kerr)
		}
		a.Publisher = k
		a.closers = append(a.closers, k.Close)
	default:
		a.Publisher = events.Nop{}
	}

	mopts := markers.Options{ThresholdMeters: cfg.Markers.DuplicateThresholdM}
	if cfg.Markers.H3Index {
		mopts.Mapper = h3mapper.New()
	}

	reg := projects.New(a.KV, projects.WithStorageKey(cfg.Storage.Key), projects.WithLogger(log))
	a.Workspace = workspace.New(workspace.Options{
		Registry:       reg,
		Publisher:      a.Publisher,
		Reports:        report.NewBuilder(cfg.Report.CacheSize),
		Markers:        mopts,
		MaxImageBytes:  cfg.Import.MaxImageBytes,
		ImportErrorCap: cfg.Import.MaxDisplayErrors,
		SaveTimeout:    cfg.Storage.OpTimeout,
		Logger:         log,
	})

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Storage.OpTimeout)
	defer cancelLoad()
	if err = a.Workspace.Load(loadCtx); err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
