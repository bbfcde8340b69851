package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/autosave"
	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
)

type AssessmentService interface {
	CreateAssessment(ctx context.Context, userID, semesterID string, req *models.CreateAssessmentRequest) (*models.Assessment, error)
	CreateAssessmentsBulk(ctx context.Context, userID, semesterID string, reqs []models.CreateAssessmentRequest) ([]models.Assessment, error)
	GetAssessmentByID(ctx context.Context, userID, id string) (*models.Assessment, error)
	GetAssessmentsBySemester(ctx context.Context, userID, semesterID string, filter repository.AssessmentFilter) ([]models.Assessment, error)
	UpdateAssessment(ctx context.Context, userID, id string, req *models.UpdateAssessmentRequest) (*models.Assessment, error)
	UpdateStatus(ctx context.Context, userID, id, status string) error
	DeleteAssessment(ctx context.Context, userID, id string) error
	AutoSave(ctx context.Context, userID, semesterID string, entries []models.AssessmentSnapshotEntry) (*models.AutoSaveResponse, error)
	AutoSaveStatus(semesterID string) *models.AutoSaveResponse
	Close()
}

type assessmentService struct {
	assessmentRepo repository.AssessmentRepository
	semesterRepo   repository.SemesterRepository
	logger         zerolog.Logger

	quietPeriod time.Duration

	mu           sync.Mutex
	coordinators map[string]*autosave.Coordinator
}

func NewAssessmentService(
	assessmentRepo repository.AssessmentRepository,
	semesterRepo repository.SemesterRepository,
	quietPeriod time.Duration,
	logger zerolog.Logger,
) AssessmentService {
	if quietPeriod <= 0 {
		quietPeriod = autosave.DefaultQuietPeriod
	}
	return &assessmentService{
		assessmentRepo: assessmentRepo,
		semesterRepo:   semesterRepo,
		logger:         logger,
		quietPeriod:    quietPeriod,
		coordinators:   make(map[string]*autosave.Coordinator),
	}
}

func (s *assessmentService) buildAssessment(semesterID string, req *models.CreateAssessmentRequest) (*models.Assessment, error) {
	status := models.NormalizeStatus(req.Status)
	if status == "" {
		status = models.StatusNotStarted
	}
	if !models.ValidStatus(status) {
		return nil, errors.New("invalid assessment status")
	}

	now := time.Now()
	return &models.Assessment{
		ID:             uuid.New().String(),
		SemesterID:     semesterID,
		CourseName:     req.CourseName,
		AssignmentName: req.AssignmentName,
		DueDate:        req.DueDate,
		DueTime:        req.DueTime,
		Weight:         models.ClampWeight(req.Weight),
		Status:         status,
		Mark:           models.ClampMark(req.Mark),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *assessmentService) requireSemester(ctx context.Context, userID, semesterID string) error {
	semester, err := s.semesterRepo.GetByID(ctx, userID, semesterID)
	if err != nil {
		return fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return errors.New("semester not found")
	}
	return nil
}

// requireOwned loads an assessment and verifies its semester belongs to the
// caller. Another user's assessment is indistinguishable from a missing one.
func (s *assessmentService) requireOwned(ctx context.Context, userID, id string) (*models.Assessment, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if assessment == nil {
		return nil, errors.New("assessment not found")
	}

	semester, err := s.semesterRepo.GetByID(ctx, userID, assessment.SemesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, errors.New("assessment not found")
	}

	return assessment, nil
}

func (s *assessmentService) CreateAssessment(ctx context.Context, userID, semesterID string, req *models.CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.requireSemester(ctx, userID, semesterID); err != nil {
		return nil, err
	}

	assessment, err := s.buildAssessment(semesterID, req)
	if err != nil {
		return nil, err
	}

	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info().
		Str("assessment_id", assessment.ID).
		Str("course", assessment.CourseName).
		Str("assignment", assessment.AssignmentName).
		Msg("Assessment created")

	return assessment, nil
}

// CreateAssessmentsBulk is the landing point for externally extracted
// outlines: all rows are validated first, then inserted as one batch.
func (s *assessmentService) CreateAssessmentsBulk(ctx context.Context, userID, semesterID string, reqs []models.CreateAssessmentRequest) ([]models.Assessment, error) {
	if len(reqs) == 0 {
		return nil, errors.New("no assessments provided")
	}
	if err := s.requireSemester(ctx, userID, semesterID); err != nil {
		return nil, err
	}

	assessments := make([]models.Assessment, 0, len(reqs))
	for i := range reqs {
		a, err := s.buildAssessment(semesterID, &reqs[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		assessments = append(assessments, *a)
	}

	if err := s.assessmentRepo.CreateBatch(ctx, assessments); err != nil {
		return nil, fmt.Errorf("failed to create assessments: %w", err)
	}

	s.logger.Info().
		Str("semester_id", semesterID).
		Int("count", len(assessments)).
		Msg("Assessments created in bulk")

	return assessments, nil
}

func (s *assessmentService) GetAssessmentByID(ctx context.Context, userID, id string) (*models.Assessment, error) {
	return s.requireOwned(ctx, userID, id)
}

func (s *assessmentService) GetAssessmentsBySemester(ctx context.Context, userID, semesterID string, filter repository.AssessmentFilter) ([]models.Assessment, error) {
	if err := s.requireSemester(ctx, userID, semesterID); err != nil {
		return nil, err
	}

	assessments, err := s.assessmentRepo.GetBySemester(ctx, semesterID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessments: %w", err)
	}

	return assessments, nil
}

func (s *assessmentService) UpdateAssessment(ctx context.Context, userID, id string, req *models.UpdateAssessmentRequest) (*models.Assessment, error) {
	assessment, err := s.requireOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	status := models.NormalizeStatus(req.Status)
	if !models.ValidStatus(status) {
		return nil, errors.New("invalid assessment status")
	}

	assessment.CourseName = req.CourseName
	assessment.AssignmentName = req.AssignmentName
	assessment.DueDate = req.DueDate
	assessment.DueTime = req.DueTime
	assessment.Weight = models.ClampWeight(req.Weight)
	assessment.Status = status
	assessment.Mark = models.ClampMark(req.Mark)
	assessment.UpdatedAt = time.Now()

	if err := s.assessmentRepo.Update(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	return assessment, nil
}

func (s *assessmentService) UpdateStatus(ctx context.Context, userID, id, status string) error {
	assessment, err := s.requireOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	status = models.NormalizeStatus(status)
	if !models.ValidStatus(status) {
		return errors.New("invalid assessment status")
	}

	return s.assessmentRepo.UpdateFields(ctx, id, assessment.Mark, assessment.Weight, status)
}

func (s *assessmentService) DeleteAssessment(ctx context.Context, userID, id string) error {
	if _, err := s.requireOwned(ctx, userID, id); err != nil {
		return err
	}

	return s.assessmentRepo.Delete(ctx, id)
}

// AutoSave feeds an edited snapshot into the per-semester coordinator. The
// write itself happens later, once the quiet period elapses with no further
// edits, so a burst of keystrokes turns into a single batched update.
func (s *assessmentService) AutoSave(ctx context.Context, userID, semesterID string, entries []models.AssessmentSnapshotEntry) (*models.AutoSaveResponse, error) {
	for i := range entries {
		status := models.NormalizeStatus(entries[i].Status)
		if !models.ValidStatus(status) {
			return nil, fmt.Errorf("entry %d: invalid assessment status", i)
		}
		entries[i].Status = status
		entries[i].Weight = models.ClampWeight(entries[i].Weight)
		entries[i].Mark = models.ClampMark(entries[i].Mark)
	}

	coordinator, err := s.coordinator(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	coordinator.Observe(entries)

	state, savedAt, lastErr := coordinator.Status()
	return &models.AutoSaveResponse{
		State:     string(state),
		SavedAt:   savedAt,
		LastError: lastErr,
	}, nil
}

func (s *assessmentService) AutoSaveStatus(semesterID string) *models.AutoSaveResponse {
	s.mu.Lock()
	coordinator := s.coordinators[semesterID]
	s.mu.Unlock()

	if coordinator == nil {
		return &models.AutoSaveResponse{State: string(autosave.StateIdle)}
	}

	state, savedAt, lastErr := coordinator.Status()
	return &models.AutoSaveResponse{
		State:     string(state),
		SavedAt:   savedAt,
		LastError: lastErr,
	}
}

// coordinator returns the semester's auto-save coordinator, creating it on
// first use. A new coordinator is seeded with the current stored snapshot so
// the first observed client state never triggers a redundant write.
func (s *assessmentService) coordinator(ctx context.Context, userID, semesterID string) (*autosave.Coordinator, error) {
	s.mu.Lock()
	if c, ok := s.coordinators[semesterID]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	if err := s.requireSemester(ctx, userID, semesterID); err != nil {
		return nil, err
	}

	current, err := s.assessmentRepo.GetBySemester(ctx, semesterID, repository.AssessmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load assessments: %w", err)
	}
	baseline := make([]models.AssessmentSnapshotEntry, 0, len(current))
	for i := range current {
		baseline = append(baseline, models.AssessmentSnapshotEntry{
			ID:     current[i].ID,
			Mark:   current[i].Mark,
			Weight: current[i].Weight,
			Status: current[i].Status,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.coordinators[semesterID]; ok {
		return c, nil
	}

	c := autosave.New(
		func(saveCtx context.Context, snapshot []models.AssessmentSnapshotEntry) error {
			return s.assessmentRepo.UpdateFieldsBatch(saveCtx, semesterID, snapshot)
		},
		s.logger.With().Str("semester_id", semesterID).Logger(),
		autosave.WithQuietPeriod(s.quietPeriod),
	)
	c.Observe(baseline)
	s.coordinators[semesterID] = c
	return c, nil
}

// Close flushes and stops every auto-save coordinator.
func (s *assessmentService) Close() {
	s.mu.Lock()
	coordinators := make([]*autosave.Coordinator, 0, len(s.coordinators))
	for _, c := range s.coordinators {
		coordinators = append(coordinators, c)
	}
	s.coordinators = make(map[string]*autosave.Coordinator)
	s.mu.Unlock()

	for _, c := range coordinators {
		c.Flush()
		c.Close()
	}
}
