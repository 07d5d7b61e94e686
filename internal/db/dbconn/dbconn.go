// Package dbconn picks a cache repository implementation from a URL.
package dbconn

import (
	"context"
	"fmt"
	"strings"

	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/db/postgres"
	"github.com/jusunglee/romanji/internal/db/sqlite"
)

// Open returns a SQLite repository for sqlite:// URLs, bare .db paths and
// :memory:, and a PostgreSQL repository for anything else.
func Open(ctx context.Context, databaseURL string) (db.Repository, error) {
	if IsSQLite(databaseURL) {
		repo, err := sqlite.New(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite repository: %w", err)
		}
		return repo, nil
	}

	repo, err := postgres.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening PostgreSQL repository: %w", err)
	}
	return repo, nil
}

func IsSQLite(databaseURL string) bool {
	return databaseURL == ":memory:" ||
		strings.HasPrefix(databaseURL, "sqlite://") ||
		strings.HasSuffix(databaseURL, ".db")
}
