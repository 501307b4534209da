package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vbonduro/islandlife/internal/advisor"
	claudeadvisor "github.com/vbonduro/islandlife/internal/advisor/claude"
	ollamaadvisor "github.com/vbonduro/islandlife/internal/advisor/ollama"
	"github.com/vbonduro/islandlife/internal/config"
	"github.com/vbonduro/islandlife/internal/db"
	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/ingest"
	"github.com/vbonduro/islandlife/internal/logging"
	"github.com/vbonduro/islandlife/internal/objectstore"
	"github.com/vbonduro/islandlife/internal/objectstore/cos"
	"github.com/vbonduro/islandlife/internal/objectstore/local"
	"github.com/vbonduro/islandlife/internal/remotesync"
	"github.com/vbonduro/islandlife/internal/service"
	"github.com/vbonduro/islandlife/internal/snapshot"
	"github.com/vbonduro/islandlife/internal/store"
)

// objectsPath is where the HTTP server exposes objects of the local backend.
const objectsPath = "/objects"

// stack is everything a command needs, wired in dependency order.
type stack struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	adapter *snapshot.Adapter
	engine  *remotesync.Engine
	pets    *service.PetService
	assets  *ingest.Pipeline
	advisor *advisor.Advisor

	closeLog func()
}

func openStack(ctx context.Context) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		closeLog()
		return nil, err
	}

	adapter := snapshot.NewAdapter(store.NewSettingStore(database), cfg.LocalQuotaBytes, logger)
	engine := remotesync.New(newStoreFactory(cfg), logger, cfg.SyncQuietPeriod)
	initial := adapter.LoadSnapshot(ctx)
	pets := service.NewPetService(initial, adapter, engine, logger)
	engine.Attach(pets)
	if initial == nil {
		// First run: keep the seeded ids stable across invocations.
		if err := adapter.SaveSnapshot(ctx, pets.Snapshot()); err != nil {
			logger.Warn("failed to save seeded snapshot", "error", err)
		}
	}

	return &stack{
		cfg:      cfg,
		logger:   logger,
		db:       database,
		adapter:  adapter,
		engine:   engine,
		pets:     pets,
		assets:   ingest.NewPipeline(engine, logger),
		advisor:  newAdvisor(cfg, logger),
		closeLog: closeLog,
	}, nil
}

// remoteConfig prefers credentials saved through the API over the config file.
func (s *stack) remoteConfig(ctx context.Context) domain.RemoteConfig {
	if rc, ok := s.adapter.LoadRemoteConfig(ctx); ok {
		return rc
	}
	return s.cfg.Remote
}

// useRemote connects the bucket without the initial pull. It reports whether
// remote storage is configured.
func (s *stack) useRemote(ctx context.Context) (bool, error) {
	rc := s.remoteConfig(ctx)
	if !rc.Complete() {
		return false, nil
	}
	if err := s.engine.Use(rc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *stack) Close() {
	s.engine.Close()
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	s.closeLog()
}

func newStoreFactory(cfg *config.Config) remotesync.StoreFactory {
	if cfg.RemoteBackend == "local" {
		return func(rc domain.RemoteConfig) (objectstore.ObjectStore, error) {
			s, err := local.NewLocalObjectStore(filepath.Join(cfg.RemoteLocalPath, rc.BucketName), objectsPath)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return func(rc domain.RemoteConfig) (objectstore.ObjectStore, error) {
		s, err := cos.NewCOSObjectStore(rc)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func newAdvisor(cfg *config.Config, logger *slog.Logger) *advisor.Advisor {
	switch cfg.AdvisorBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Warn("CLAUDE_API_KEY is not set; advice is disabled")
			return advisor.New(nil, logger)
		}
		logger.Debug("using Claude advisor backend", "model", cfg.ClaudeModel)
		return advisor.New(claudeadvisor.NewClaudeGenerator(cfg.ClaudeAPIKey, cfg.ClaudeModel), logger)
	case "ollama":
		logger.Debug("using Ollama advisor backend", "model", cfg.OllamaModel)
		return advisor.New(ollamaadvisor.NewOllamaGenerator(cfg.OllamaHost, cfg.OllamaModel), logger)
	default:
		return advisor.New(nil, logger)
	}
}
