package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
)

type SettingsService interface {
	GetSettings(ctx context.Context, userID string) ([]models.UserSetting, error)
	PutSetting(ctx context.Context, userID string, req *models.PutSettingRequest) (*models.UserSetting, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	logger       zerolog.Logger
}

func NewSettingsService(settingsRepo repository.SettingsRepository, logger zerolog.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func (s *settingsService) GetSettings(ctx context.Context, userID string) ([]models.UserSetting, error) {
	settings, err := s.settingsRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

func (s *settingsService) PutSetting(ctx context.Context, userID string, req *models.PutSettingRequest) (*models.UserSetting, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, errors.New("setting key is required")
	}

	// Target grades are numeric percentages, everything else is free-form.
	if strings.HasPrefix(key, "target_grade.") {
		target, err := strconv.ParseFloat(req.Value, 64)
		if err != nil || target < 0 || target > 100 {
			return nil, errors.New("target grade must be a number between 0 and 100")
		}
	}

	setting := &models.UserSetting{
		UserID:    userID,
		Key:       key,
		Value:     req.Value,
		UpdatedAt: time.Now(),
	}

	if err := s.settingsRepo.Put(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}

	return setting, nil
}
