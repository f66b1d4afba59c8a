package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/haven-sec/rehearse/internal/advisory"
	"github.com/haven-sec/rehearse/internal/config"
	"github.com/haven-sec/rehearse/internal/engine"
	"github.com/haven-sec/rehearse/internal/observability"
	"github.com/haven-sec/rehearse/internal/playbook"
	"github.com/haven-sec/rehearse/internal/report"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/store/file"
	"github.com/haven-sec/rehearse/internal/store/sqlite"
	"github.com/haven-sec/rehearse/internal/types"
)

// app wires the full object graph for one command invocation. The storage
// backend is chosen here, once; nothing downstream branches on it.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store.SessionStore
	playbooks *playbook.MemoryStore
	engine    *engine.Engine
	reports   *report.Synthesizer
	advisor   advisory.Generator

	shutdownTracing func(context.Context) error
}

// openApp builds the application from the resolved config file. Callers must
// Close it.
func openApp(requirePlaybooks bool) (*app, error) {
	cfg, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(configPath())
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	tracerProvider, shutdownTracing, err := observability.InitTracing(cfg.Tracing, os.Stderr)
	if err != nil {
		return nil, err
	}
	tracer := tracerProvider.Tracer("rehearse")

	sessions, err := openStore(cfg)
	if err != nil {
		shutdownTracing(context.Background())
		return nil, err
	}

	playbooks := playbook.NewMemoryStore()
	if _, statErr := os.Stat(cfg.Playbook.Dir); statErr == nil {
		if err := playbooks.LoadDir(cfg.Playbook.Dir); err != nil {
			sessions.Close()
			shutdownTracing(context.Background())
			return nil, err
		}
	} else if requirePlaybooks {
		sessions.Close()
		shutdownTracing(context.Background())
		return nil, types.NewErrorf(types.PLAYBOOK_LOAD_FAILED,
			"playbook directory %s does not exist", cfg.Playbook.Dir)
	} else {
		logger.Warn("playbook directory missing, continuing with none loaded", "dir", cfg.Playbook.Dir)
	}

	advisor, err := buildAdvisor(cfg)
	if err != nil {
		sessions.Close()
		shutdownTracing(context.Background())
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     sessions,
		playbooks: playbooks,
		engine: engine.New(sessions, playbooks,
			engine.WithLogger(logger),
			engine.WithTracer(tracer)),
		reports:         report.NewSynthesizer(sessions, playbooks, report.WithLogger(logger)),
		advisor:         advisor,
		shutdownTracing: shutdownTracing,
	}, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	if a.shutdownTracing != nil {
		if terr := a.shutdownTracing(context.Background()); err == nil {
			err = terr
		}
	}
	return err
}

func openStore(cfg *config.Config) (store.SessionStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return file.Open(cfg.Storage.File.Dir)
	case config.BackendSQLite:
		sqliteCfg := sqlite.DefaultConfig(cfg.Storage.SQLite.Path)
		if cfg.Storage.SQLite.MaxConnections > 0 {
			sqliteCfg.MaxOpenConns = cfg.Storage.SQLite.MaxConnections
		}
		if cfg.Storage.SQLite.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.Storage.SQLite.BusyTimeout
		}
		db, err := sqlite.OpenDBWithConfig(sqliteCfg)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil
	default:
		return nil, types.NewErrorf(types.CONFIG_VALIDATION_FAILED,
			"unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildAdvisor(cfg *config.Config) (advisory.Generator, error) {
	static := advisory.NewStaticGenerator()
	if cfg.Advisory.Generator != "llm" {
		return static, nil
	}

	model, err := buildModel(cfg.Advisory)
	if err != nil {
		return nil, err
	}
	return advisory.NewLLMGenerator(model, static), nil
}

func buildModel(cfg config.AdvisoryConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "anthropic":
		var opts []anthropic.Option
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(opts...)
	case "openai":
		var opts []openai.Option
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(opts...)
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		return ollama.New(ollama.WithModel(model))
	default:
		return nil, types.NewErrorf(types.CONFIG_VALIDATION_FAILED,
			"unknown advisory provider %q", cfg.Provider)
	}
}
