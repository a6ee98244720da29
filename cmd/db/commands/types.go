package commands

import (
	"errors"

	"github.com/biasnet/influence/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired  = errors.New("NAME argument required")
	ErrUnknownView   = errors.New("unknown materialized view")
	ErrDriftDetected = errors.New("aggregates drifted from their source rows")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
