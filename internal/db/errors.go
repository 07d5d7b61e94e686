package db

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoRows is returned when a lookup finds no cached entry
	ErrNoRows = errors.New("no rows in result set")

	// ErrEmptyKana is returned when a write is attempted without a kana key
	ErrEmptyKana = errors.New("kana must not be empty")
)

// IsNoRows returns true if the error indicates no rows were found,
// whichever driver produced it.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, pgx.ErrNoRows)
}
