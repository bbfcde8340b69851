package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

// AssessmentFilter narrows listing queries. Zero values match everything.
type AssessmentFilter struct {
	CourseName string
	Status     string
	Query      string
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	CreateBatch(ctx context.Context, assessments []models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	GetBySemester(ctx context.Context, semesterID string, filter AssessmentFilter) ([]models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	UpdateFields(ctx context.Context, id string, mark *float64, weight float64, status string) error
	UpdateFieldsBatch(ctx context.Context, semesterID string, entries []models.AssessmentSnapshotEntry) error
	Delete(ctx context.Context, id string) error
}

type assessmentRepository struct {
	*PostgresRepository
}

func NewAssessmentRepository(db *sql.DB, logger zerolog.Logger) AssessmentRepository {
	return &assessmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	query := `
		INSERT INTO assessments (id, semester_id, course_name, assignment_name, due_date, due_time, weight, status, mark, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		assessment.ID,
		assessment.SemesterID,
		assessment.CourseName,
		assessment.AssignmentName,
		assessment.DueDate,
		assessment.DueTime,
		assessment.Weight,
		assessment.Status,
		assessment.Mark,
		assessment.CreatedAt,
		assessment.UpdatedAt,
	)

	return err
}

func (r *assessmentRepository) CreateBatch(ctx context.Context, assessments []models.Assessment) error {
	query := `
		INSERT INTO assessments (id, semester_id, course_name, assignment_name, due_date, due_time, weight, status, mark, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	return r.withTx(ctx, func(tx *sql.Tx) error {
		for i := range assessments {
			a := &assessments[i]
			_, err := tx.ExecContext(ctx, query,
				a.ID, a.SemesterID, a.CourseName, a.AssignmentName,
				a.DueDate, a.DueTime, a.Weight, a.Status, a.Mark,
				a.CreatedAt, a.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *assessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := `
		SELECT id, semester_id, course_name, assignment_name, due_date, due_time, weight, status, mark, created_at, updated_at
		FROM assessments
		WHERE id = $1
	`

	assessment := &models.Assessment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&assessment.ID,
		&assessment.SemesterID,
		&assessment.CourseName,
		&assessment.AssignmentName,
		&assessment.DueDate,
		&assessment.DueTime,
		&assessment.Weight,
		&assessment.Status,
		&assessment.Mark,
		&assessment.CreatedAt,
		&assessment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assessment, err
}

func (r *assessmentRepository) GetBySemester(ctx context.Context, semesterID string, filter AssessmentFilter) ([]models.Assessment, error) {
	query := `
		SELECT id, semester_id, course_name, assignment_name, due_date, due_time, weight, status, mark, created_at, updated_at
		FROM assessments
		WHERE semester_id = $1
	`
	args := []interface{}{semesterID}

	if filter.CourseName != "" {
		args = append(args, filter.CourseName)
		query += fmt.Sprintf(" AND course_name = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND (assignment_name ILIKE $%d OR course_name ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY due_date ASC, due_time ASC, created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		var a models.Assessment
		err := rows.Scan(
			&a.ID,
			&a.SemesterID,
			&a.CourseName,
			&a.AssignmentName,
			&a.DueDate,
			&a.DueTime,
			&a.Weight,
			&a.Status,
			&a.Mark,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}

	return assessments, rows.Err()
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	query := `
		UPDATE assessments
		SET course_name = $1, assignment_name = $2, due_date = $3, due_time = $4,
			weight = $5, status = $6, mark = $7, updated_at = $8
		WHERE id = $9
	`

	_, err := r.db.ExecContext(ctx, query,
		assessment.CourseName,
		assessment.AssignmentName,
		assessment.DueDate,
		assessment.DueTime,
		assessment.Weight,
		assessment.Status,
		assessment.Mark,
		assessment.UpdatedAt,
		assessment.ID,
	)

	return err
}

func (r *assessmentRepository) UpdateFields(ctx context.Context, id string, mark *float64, weight float64, status string) error {
	query := `
		UPDATE assessments
		SET mark = $1, weight = $2, status = $3, updated_at = now()
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, mark, weight, status, id)
	return err
}

// UpdateFieldsBatch persists an auto-save snapshot in one transaction so a
// partially applied snapshot never becomes visible. Every row is constrained
// to the semester, entries pointing elsewhere update nothing.
func (r *assessmentRepository) UpdateFieldsBatch(ctx context.Context, semesterID string, entries []models.AssessmentSnapshotEntry) error {
	query := `
		UPDATE assessments
		SET mark = $1, weight = $2, status = $3, updated_at = now()
		WHERE id = $4 AND semester_id = $5
	`

	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, query, e.Mark, e.Weight, e.Status, e.ID, semesterID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *assessmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assessments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
