package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

// SettingsRepository reads the mutable key/value system settings. Callers go
// through the Redis-backed cache adapter; this is the source of truth.
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSettingsRepository(db *sql.DB, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select setting %s: %w", key, err)
	}
	return value, nil
}
