package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/calendar"
	"github.com/asetta/kivo/internal/gradebook"
	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
)

// ReportService produces the derived, never-persisted views over a
// semester's assessments: grade reports, course summaries, the month grid
// and the iCalendar export. Everything is recomputed on read.
type ReportService interface {
	GradeReports(ctx context.Context, userID, semesterID, courseName string, targetOverride *float64) ([]gradebook.GradeReport, error)
	CourseSummaries(ctx context.Context, userID, semesterID string) ([]gradebook.CourseSummary, error)
	MonthGrid(ctx context.Context, userID, semesterID string, year int, month time.Month, filter calendar.Filter) ([]calendar.DayCell, error)
	ExportCalendar(ctx context.Context, userID, semesterID string) (name string, ics string, err error)
}

type reportService struct {
	assessmentRepo repository.AssessmentRepository
	semesterRepo   repository.SemesterRepository
	settingsRepo   repository.SettingsRepository
	logger         zerolog.Logger
	now            func() time.Time
}

func NewReportService(
	assessmentRepo repository.AssessmentRepository,
	semesterRepo repository.SemesterRepository,
	settingsRepo repository.SettingsRepository,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		assessmentRepo: assessmentRepo,
		semesterRepo:   semesterRepo,
		settingsRepo:   settingsRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *reportService) loadSemester(ctx context.Context, userID, semesterID string) (*models.SemesterWithStats, []models.Assessment, error) {
	semester, err := s.semesterRepo.GetByID(ctx, userID, semesterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get semester: %w", err)
	}
	if semester == nil {
		return nil, nil, errors.New("semester not found")
	}

	assessments, err := s.assessmentRepo.GetBySemester(ctx, semesterID, repository.AssessmentFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assessments: %w", err)
	}

	return semester, assessments, nil
}

// targetGrade resolves the per-course target preference, falling back to the
// default when unset or unparseable.
func (s *reportService) targetGrade(ctx context.Context, userID, courseName string) float64 {
	setting, err := s.settingsRepo.Get(ctx, userID, "target_grade."+courseName)
	if err != nil {
		s.logger.Error().Err(err).Str("course", courseName).Msg("Failed to read target grade setting")
		return models.DefaultTargetGrade
	}
	if setting == nil {
		return models.DefaultTargetGrade
	}

	target, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || target < 0 || target > 100 {
		return models.DefaultTargetGrade
	}
	return target
}

func (s *reportService) GradeReports(ctx context.Context, userID, semesterID, courseName string, targetOverride *float64) ([]gradebook.GradeReport, error) {
	_, assessments, err := s.loadSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	// Group in order of first appearance so repeated reads render the same
	// report ordering.
	order := make([]string, 0)
	byCourse := make(map[string][]models.Assessment)
	for _, a := range assessments {
		if courseName != "" && a.CourseName != courseName {
			continue
		}
		if _, ok := byCourse[a.CourseName]; !ok {
			order = append(order, a.CourseName)
		}
		byCourse[a.CourseName] = append(byCourse[a.CourseName], a)
	}

	reports := make([]gradebook.GradeReport, 0, len(order))
	for _, course := range order {
		target := s.targetGrade(ctx, userID, course)
		if targetOverride != nil {
			target = *targetOverride
		}
		reports = append(reports, gradebook.Report(course, byCourse[course], target))
	}

	return reports, nil
}

func (s *reportService) CourseSummaries(ctx context.Context, userID, semesterID string) ([]gradebook.CourseSummary, error) {
	_, assessments, err := s.loadSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	return gradebook.Summarize(assessments, s.now()), nil
}

func (s *reportService) MonthGrid(ctx context.Context, userID, semesterID string, year int, month time.Month, filter calendar.Filter) ([]calendar.DayCell, error) {
	if month < time.January || month > time.December {
		return nil, errors.New("invalid month")
	}
	if year < 1 {
		return nil, errors.New("invalid year")
	}

	_, assessments, err := s.loadSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	return calendar.BuildMonthGrid(year, month, assessments, filter, s.now()), nil
}

func (s *reportService) ExportCalendar(ctx context.Context, userID, semesterID string) (string, string, error) {
	semester, assessments, err := s.loadSemester(ctx, userID, semesterID)
	if err != nil {
		return "", "", err
	}

	return semester.Name, calendar.ExportICS(semester.Name, assessments), nil
}
