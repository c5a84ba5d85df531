package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/metasync/internal/adapters/driven/index/bleve"
	"github.com/custodia-labs/metasync/internal/adapters/driven/index/elasticsearch"
	"github.com/custodia-labs/metasync/internal/adapters/driven/source"
	"github.com/custodia-labs/metasync/internal/adapters/driven/source/s3"
	"github.com/custodia-labs/metasync/internal/adapters/driven/source/swift"
	"github.com/custodia-labs/metasync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/metasync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/metasync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/metasync/internal/adapters/driving/cli"
	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/core/services"
	"github.com/custodia-labs/metasync/internal/logger"
)

// buildServices loads the settings and connects every adapter.
func buildServices(
	_ context.Context, store driven.ConfigStore, opts cli.Options, stderr io.Writer,
) (*cli.Services, error) {
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", store.Path(), err)
	}

	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for n := len(closers) - 1; n >= 0; n-- {
			errs = append(errs, closers[n].Close())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, error) {
		_ = closeAll()
		return nil, err
	}

	log, logFile, err := newLogger(settings.Log, opts, stderr)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		closers = append(closers, logFile)
	}

	index, err := openIndex(settings.Index)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, index)

	src, err := openSource(settings.Source)
	if err != nil {
		return fail(err)
	}

	cursors, cursorCloser, err := openCursors(settings.Progress, index.Name())
	if err != nil {
		return fail(err)
	}
	if cursorCloser != nil {
		closers = append(closers, cursorCloser)
	}

	log.Debug("Using %s index %q, %s source, %s progress",
		settings.Index.Backend, index.Name(), settings.Source.Backend, settings.Progress.Backend)

	return &cli.Services{
		Reconcilers: services.NewEngine(index, src, cursors, log),
		Schema:      services.NewSchemaService(index, log),
		Logger:      log,
		Close:       closeAll,
	}, nil
}

// newLogger writes to the configured log file, or stderr when none is set.
// Flags take precedence over the configured level.
func newLogger(cfg domain.LogSettings, opts cli.Options, stderr io.Writer) (*logger.Writer, io.Closer, error) {
	levelName := cfg.Level
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = logger.LevelDebug
	}

	if cfg.File == "" {
		return logger.New(stderr, level), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(f, level), f, nil
}

func openIndex(cfg domain.IndexSettings) (driven.SearchIndex, error) {
	switch cfg.Backend {
	case domain.IndexBackendElasticsearch:
		index, err := elasticsearch.New(elasticsearch.Config{
			Addresses: cfg.Hosts,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Index:     cfg.Name,
		})
		if err != nil {
			return nil, err
		}
		return index, nil
	case domain.IndexBackendBleve:
		index, err := bleve.Open(cfg.Path, cfg.Name)
		if err != nil {
			return nil, err
		}
		return index, nil
	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func openSource(cfg domain.SourceSettings) (driven.ObjectSource, error) {
	var (
		src driven.ObjectSource
		err error
	)
	switch cfg.Backend {
	case domain.SourceBackendSwift:
		src, err = swift.New(swift.Config{
			AuthURL:    cfg.AuthURL,
			User:       cfg.User,
			Key:        cfg.Key,
			StorageURL: cfg.StorageURL,
			Token:      cfg.Token,
		})
	case domain.SourceBackendS3:
		src, err = s3.New(s3.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("%w: source backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Rate <= 0 {
		return src, nil
	}
	return source.NewRateLimited(src, source.RateLimitConfig{
		RequestsPerSecond: cfg.Rate,
		BurstSize:         cfg.Burst,
	}), nil
}

func openCursors(cfg domain.ProgressSettings, index string) (driven.CursorStoreProvider, io.Closer, error) {
	switch cfg.Backend {
	case domain.ProgressBackendFile:
		stores, err := file.NewCursorStores(cfg.StatusDir, index)
		if err != nil {
			return nil, nil, err
		}
		return stores, nil, nil
	case domain.ProgressBackendSQLite:
		store, err := sqlite.NewStore(cfg.StatusDir, index)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case domain.ProgressBackendMemory:
		return memory.NewCursorStores(index), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: progress backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}
