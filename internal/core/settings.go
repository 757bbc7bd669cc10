package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailcycle/internal/model"
)

type SettingsService struct {
	db DB
}

func NewSettingsService(db DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the stored value for key, or fallback when the key is absent.
func (s *SettingsService) Get(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// SyncIntervalHours reads the persisted sync interval; 0 means disabled,
// and unparseable values are treated as disabled.
func (s *SettingsService) SyncIntervalHours(ctx context.Context) (int, error) {
	raw, err := s.Get(ctx, model.SettingSyncIntervalHours, "0")
	if err != nil {
		return 0, err
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return 0, nil
	}
	return hours, nil
}
