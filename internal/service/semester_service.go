package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
	"github.com/asetta/kivo/internal/service/integration"
)

type SemesterService interface {
	CreateSemester(ctx context.Context, userID string, req *models.CreateSemesterRequest) (*models.Semester, error)
	GetSemesterByID(ctx context.Context, userID, id string) (*models.SemesterWithStats, error)
	GetAllSemesters(ctx context.Context, userID string) ([]models.SemesterWithStats, error)
	RenameSemester(ctx context.Context, userID, id string, req *models.CreateSemesterRequest) error
	UpdatePosition(ctx context.Context, userID, id string, position int) error
	DeleteSemester(ctx context.Context, userID, id string) error
}

type semesterService struct {
	semesterRepo repository.SemesterRepository
	events       integration.EventPublisher
	logger       zerolog.Logger
}

func NewSemesterService(semesterRepo repository.SemesterRepository, events integration.EventPublisher, logger zerolog.Logger) SemesterService {
	return &semesterService{
		semesterRepo: semesterRepo,
		events:       events,
		logger:       logger,
	}
}

func (s *semesterService) CreateSemester(ctx context.Context, userID string, req *models.CreateSemesterRequest) (*models.Semester, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("semester name is required")
	}

	// Duplicate check happens before any write, names are unique per user
	// case-insensitively.
	exists, err := s.semesterRepo.NameExists(ctx, userID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check semester name: %w", err)
	}
	if exists {
		return nil, errors.New("semester name already exists")
	}

	existing, err := s.semesterRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semesters: %w", err)
	}

	semester := &models.Semester{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Position:  len(existing),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.semesterRepo.Create(ctx, semester); err != nil {
		return nil, fmt.Errorf("failed to create semester: %w", err)
	}

	s.logger.Info().
		Str("semester_id", semester.ID).
		Str("name", semester.Name).
		Msg("Semester created")

	return semester, nil
}

func (s *semesterService) GetSemesterByID(ctx context.Context, userID, id string) (*models.SemesterWithStats, error) {
	semester, err := s.semesterRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, errors.New("semester not found")
	}

	return semester, nil
}

func (s *semesterService) GetAllSemesters(ctx context.Context, userID string) ([]models.SemesterWithStats, error) {
	semesters, err := s.semesterRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semesters: %w", err)
	}

	return semesters, nil
}

func (s *semesterService) RenameSemester(ctx context.Context, userID, id string, req *models.CreateSemesterRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.New("semester name is required")
	}

	semester, err := s.semesterRepo.GetByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return errors.New("semester not found")
	}

	exists, err := s.semesterRepo.NameExists(ctx, userID, name, id)
	if err != nil {
		return fmt.Errorf("failed to check semester name: %w", err)
	}
	if exists {
		return errors.New("semester name already exists")
	}

	semester.Name = name
	semester.UpdatedAt = time.Now()

	return s.semesterRepo.Update(ctx, &semester.Semester)
}

func (s *semesterService) UpdatePosition(ctx context.Context, userID, id string, position int) error {
	semester, err := s.semesterRepo.GetByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return errors.New("semester not found")
	}

	return s.semesterRepo.UpdatePosition(ctx, userID, id, position)
}

func (s *semesterService) DeleteSemester(ctx context.Context, userID, id string) error {
	semester, err := s.semesterRepo.GetByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return errors.New("semester not found")
	}

	purged, err := s.semesterRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete semester: %w", err)
	}

	s.logger.Info().
		Str("semester_id", id).
		Int("assessments_purged", purged).
		Msg("Semester deleted")

	if s.events != nil {
		event := &models.SemesterDeletedEvent{
			SemesterID:        id,
			UserID:            userID,
			AssessmentsPurged: purged,
			Timestamp:         time.Now().Unix(),
		}
		if err := s.events.PublishSemesterDeleted(ctx, event); err != nil {
			// The delete itself is committed, the notification is best effort.
			s.logger.Error().Err(err).Str("semester_id", id).Msg("Failed to publish semester deleted event")
		}
	}

	return nil
}
