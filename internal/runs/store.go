package runs

import (
	"context"
	"fmt"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// Store is the run journal.
type Store interface {
	// Append adds a record. Records are never modified afterwards.
	Append(ctx context.Context, rec Record) error
	// Recent returns up to n records, newest first. n <= 0 returns all.
	Recent(ctx context.Context, n int) ([]Record, error)
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(cfg config.RunsConfig, log *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case config.RunsBackendJSONL, "":
		return OpenJSONL(cfg.Path, log)
	case config.RunsBackendSQLite:
		return OpenSQLite(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown runs backend: %s", cfg.Backend)
	}
}
