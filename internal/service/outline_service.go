package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
	"github.com/asetta/kivo/internal/service/integration"
	"github.com/asetta/kivo/internal/service/storage"
)

const (
	maxOutlineSize = 20 << 20 // 20 MiB per outline PDF

	presignedOutlineTTL = int64(15 * 60) // seconds
)

// OutlineService stores uploaded course-outline PDFs and announces them for
// external extraction. Parsing assessments out of the PDF content is not done
// here; the extraction worker consumes the published event.
type OutlineService interface {
	Upload(ctx context.Context, userID, semesterID, fileName string, file io.Reader, size int64) (*models.OutlineUploadResponse, error)
	GetBySemester(ctx context.Context, userID, semesterID string) ([]models.CourseOutline, error)
	Download(ctx context.Context, userID, id string) (*models.CourseOutline, io.ReadCloser, error)
	PresignedURL(ctx context.Context, userID, id string) (string, int64, error)
	Delete(ctx context.Context, userID, id string) error
}

type outlineService struct {
	outlineRepo  repository.OutlineRepository
	semesterRepo repository.SemesterRepository
	store        storage.ObjectStorage
	events       integration.EventPublisher
	logger       zerolog.Logger
}

func NewOutlineService(
	outlineRepo repository.OutlineRepository,
	semesterRepo repository.SemesterRepository,
	store storage.ObjectStorage,
	events integration.EventPublisher,
	logger zerolog.Logger,
) OutlineService {
	return &outlineService{
		outlineRepo:  outlineRepo,
		semesterRepo: semesterRepo,
		store:        store,
		events:       events,
		logger:       logger,
	}
}

func (s *outlineService) Upload(ctx context.Context, userID, semesterID, fileName string, file io.Reader, size int64) (*models.OutlineUploadResponse, error) {
	if strings.ToLower(filepath.Ext(fileName)) != ".pdf" {
		return nil, errors.New("only PDF outlines are supported")
	}
	if size <= 0 || size > maxOutlineSize {
		return nil, errors.New("outline file size is out of range")
	}

	semester, err := s.semesterRepo.GetByID(ctx, userID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, errors.New("semester not found")
	}

	content, err := io.ReadAll(io.LimitReader(file, maxOutlineSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read outline file: %w", err)
	}
	if int64(len(content)) > maxOutlineSize {
		return nil, errors.New("outline file size is out of range")
	}

	id := uuid.New().String()
	objectKey := fmt.Sprintf("outlines/%s/%s_%s", semesterID, id, filepath.Base(fileName))

	if err := s.store.Upload(ctx, objectKey, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store outline: %w", err)
	}

	outline := &models.CourseOutline{
		ID:         id,
		SemesterID: semesterID,
		FileName:   filepath.Base(fileName),
		ObjectKey:  objectKey,
		Size:       int64(len(content)),
		UploadedAt: time.Now(),
	}

	if err := s.outlineRepo.Create(ctx, outline); err != nil {
		// The object is already stored; clean it up so metadata and storage
		// stay consistent.
		if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
			s.logger.Error().Err(delErr).Str("object_key", objectKey).Msg("Failed to clean up orphaned outline object")
		}
		return nil, fmt.Errorf("failed to save outline metadata: %w", err)
	}

	s.logger.Info().
		Str("outline_id", outline.ID).
		Str("semester_id", semesterID).
		Str("file", outline.FileName).
		Int64("size", outline.Size).
		Msg("Course outline uploaded")

	if s.events != nil {
		event := &models.OutlineUploadedEvent{
			OutlineID:  outline.ID,
			SemesterID: semesterID,
			UserID:     userID,
			ObjectKey:  objectKey,
			FileName:   outline.FileName,
			Timestamp:  time.Now().Unix(),
		}
		if err := s.events.PublishOutlineUploaded(ctx, event); err != nil {
			// The upload succeeded, extraction will just not be triggered
			// automatically. Surfaced in the message below.
			s.logger.Error().Err(err).Str("outline_id", outline.ID).Msg("Failed to publish outline uploaded event")
			return &models.OutlineUploadResponse{
				ID:       outline.ID,
				FileName: outline.FileName,
				Size:     outline.Size,
				Message:  "Outline stored, but extraction could not be scheduled",
			}, nil
		}
	}

	return &models.OutlineUploadResponse{
		ID:       outline.ID,
		FileName: outline.FileName,
		Size:     outline.Size,
		Message:  "Outline uploaded, assessments will appear once extraction finishes",
	}, nil
}

func (s *outlineService) GetBySemester(ctx context.Context, userID, semesterID string) ([]models.CourseOutline, error) {
	semester, err := s.semesterRepo.GetByID(ctx, userID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, errors.New("semester not found")
	}

	outlines, err := s.outlineRepo.GetBySemester(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outlines: %w", err)
	}

	return outlines, nil
}

// requireOwned loads an outline and verifies its semester belongs to the
// caller. Another user's outline is indistinguishable from a missing one.
func (s *outlineService) requireOwned(ctx context.Context, userID, id string) (*models.CourseOutline, error) {
	outline, err := s.outlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get outline: %w", err)
	}
	if outline == nil {
		return nil, errors.New("outline not found")
	}

	semester, err := s.semesterRepo.GetByID(ctx, userID, outline.SemesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, errors.New("outline not found")
	}

	return outline, nil
}

func (s *outlineService) Download(ctx context.Context, userID, id string) (*models.CourseOutline, io.ReadCloser, error) {
	outline, err := s.requireOwned(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	reader, _, err := s.store.Download(ctx, outline.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, errors.New("outline not found")
		}
		return nil, nil, fmt.Errorf("failed to download outline: %w", err)
	}

	return outline, reader, nil
}

// PresignedURL hands out a short-lived direct link to the stored PDF so
// large documents do not have to stream through this service.
func (s *outlineService) PresignedURL(ctx context.Context, userID, id string) (string, int64, error) {
	outline, err := s.requireOwned(ctx, userID, id)
	if err != nil {
		return "", 0, err
	}

	url, err := s.store.GeneratePresignedURL(ctx, outline.ObjectKey, presignedOutlineTTL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate outline URL: %w", err)
	}

	return url, presignedOutlineTTL, nil
}

func (s *outlineService) Delete(ctx context.Context, userID, id string) error {
	outline, err := s.requireOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	// An already-missing object must not block the metadata delete.
	exists, err := s.store.Exists(ctx, outline.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to check outline object: %w", err)
	}
	if exists {
		if err := s.store.Delete(ctx, outline.ObjectKey); err != nil {
			return fmt.Errorf("failed to delete outline object: %w", err)
		}
	}

	return s.outlineRepo.Delete(ctx, id)
}
