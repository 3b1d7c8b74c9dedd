// Package cmd provides the provider factories shared by the binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/canvass/canvass/pkg/persistence"
	"github.com/canvass/canvass/pkg/persistence/file"
	"github.com/canvass/canvass/pkg/persistence/postgresql"
)

// NewPersistence selects a storage backend from the database URL scheme.
// Anything that is not postgres falls back to file storage, which needs no
// external service.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
