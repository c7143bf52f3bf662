package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status    model.RunStatus `json:"status,omitempty"`
	InputPath string          `json:"input_path,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for run bookkeeping.
type Store interface {
	CreateRun(ctx context.Context, inputPath string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store from the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "reflect.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
