package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/gbl-data/leadpipe/internal/logger"
)

// Setting keys for validation hurdles.
const (
	SettingOrgHurdle  = "validation.org_confidence_hurdle"
	SettingNameHurdle = "validation.name_confidence_hurdle"
)

// SettingsRepository stores runtime-tunable pipeline settings as key/value
// rows. Sales staff adjust hurdles without a redeploy; the validation gate
// re-reads them at the start of every run.
type SettingsRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// GetFloat returns the setting value, or fallback when the key is absent
// or unparseable. A broken settings row must never stop a validation run.
func (r *SettingsRepository) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	var raw string
	err := r.db.GetContext(ctx, &raw,
		`SELECT value FROM pipeline_settings WHERE key = $1`, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("failed to read setting, using fallback",
				logger.String("key", key),
				logger.Error(err))
		}
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.logger.Warn("unparseable setting value, using fallback",
			logger.String("key", key),
			logger.String("value", raw))
		return fallback
	}
	return value
}

// SetFloat upserts a setting value.
func (r *SettingsRepository) SetFloat(ctx context.Context, key string, value float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_settings (key, value, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, last_updated = NOW()`,
		key, strconv.FormatFloat(value, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}
