package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context, userID, key string) (*models.UserSetting, error)
	GetAll(ctx context.Context, userID string) ([]models.UserSetting, error)
	Put(ctx context.Context, setting *models.UserSetting) error
}

type settingsRepository struct {
	*PostgresRepository
}

func NewSettingsRepository(db *sql.DB, logger zerolog.Logger) SettingsRepository {
	return &settingsRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *settingsRepository) Get(ctx context.Context, userID, key string) (*models.UserSetting, error) {
	query := `
		SELECT user_id, key, value, updated_at
		FROM user_settings
		WHERE user_id = $1 AND key = $2
	`

	setting := &models.UserSetting{}
	err := r.db.QueryRowContext(ctx, query, userID, key).Scan(
		&setting.UserID,
		&setting.Key,
		&setting.Value,
		&setting.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return setting, err
}

func (r *settingsRepository) GetAll(ctx context.Context, userID string) ([]models.UserSetting, error) {
	query := `
		SELECT user_id, key, value, updated_at
		FROM user_settings
		WHERE user_id = $1
		ORDER BY key ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.UserSetting
	for rows.Next() {
		var s models.UserSetting
		if err := rows.Scan(&s.UserID, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

func (r *settingsRepository) Put(ctx context.Context, setting *models.UserSetting) error {
	query := `
		INSERT INTO user_settings (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = $3, updated_at = $4
	`

	_, err := r.db.ExecContext(ctx, query,
		setting.UserID,
		setting.Key,
		setting.Value,
		setting.UpdatedAt,
	)

	return err
}
