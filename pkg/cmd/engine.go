package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/codeready-toolchain/docmask/pkg/config"
	"github.com/codeready-toolchain/docmask/pkg/database"
	"github.com/codeready-toolchain/docmask/pkg/detector"
	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
	"github.com/codeready-toolchain/docmask/pkg/services"
)

// engine holds the long-lived collaborators a command needs: the optional
// remote detector connection and the optional audit ledger.
type engine struct {
	cfg *config.Config

	remote  *detector.GRPCSource
	limiter *rate.Limiter

	dbClient *database.Client
	runs     *services.RunService
	recorder *services.Recorder
}

// newEngine connects whatever cfg enables. Call Close when done.
func newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	e := &engine{cfg: cfg}

	if d := cfg.Detector; d != nil && d.Enabled {
		remote, err := detector.NewGRPCSource(d.Addr, cfg.Categories)
		if err != nil {
			return nil, err
		}
		e.remote = remote
		if d.RatePerSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(d.RatePerSecond), max(d.Burst, 1))
		}
		slog.Info("Remote detector enabled", "addr", d.Addr, "timeout", d.Timeout)
	}

	if cfg.Audit != nil && cfg.Audit.Enabled {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to load database config: %w", err)
		}
		dbClient, err := database.NewClient(ctx, dbConfig)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		e.dbClient = dbClient
		e.runs = services.NewRunService(dbClient)
		e.recorder = services.NewRecorder(e.runs)
		slog.Info("Audit ledger enabled", "database", dbConfig.Database)
	}

	return e, nil
}

// redactor builds a redactor restricted to set. With a remote detector the
// span source is the remote service with the local registry as fallback.
func (e *engine) redactor(set pii.CategorySet) *redaction.Redactor {
	opts := []redaction.Option{
		redaction.WithCategories(set),
		redaction.WithRender(e.cfg.Render),
	}
	if e.cfg.Processing != nil {
		opts = append(opts, redaction.WithWorkers(e.cfg.Processing.WorkerCount))
	}
	if e.remote != nil {
		fallbackOpts := []detector.FallbackOption{detector.WithTimeout(e.cfg.Detector.Timeout)}
		if e.limiter != nil {
			fallbackOpts = append(fallbackOpts, detector.WithLimiter(e.limiter))
		}
		local := detector.NewLocalSource(pii.NewRegistry(set))
		opts = append(opts, redaction.WithSource(
			detector.NewFallback(e.remote.ForCategories(set), local, fallbackOpts...)))
	}
	return redaction.NewRedactor(opts...)
}

// Close releases the detector connection and the database pool.
func (e *engine) Close() {
	if e.remote != nil {
		if err := e.remote.Close(); err != nil {
			slog.Error("Error closing detector client", "error", err)
		}
	}
	if e.dbClient != nil {
		if err := e.dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}
}
