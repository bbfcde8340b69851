package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

type SemesterRepository interface {
	Create(ctx context.Context, semester *models.Semester) error
	GetByID(ctx context.Context, userID, id string) (*models.SemesterWithStats, error)
	GetAll(ctx context.Context, userID string) ([]models.SemesterWithStats, error)
	Update(ctx context.Context, semester *models.Semester) error
	UpdatePosition(ctx context.Context, userID, id string, position int) error
	Delete(ctx context.Context, userID, id string) (int, error)
	NameExists(ctx context.Context, userID, name, excludeID string) (bool, error)
}

type semesterRepository struct {
	*PostgresRepository
}

func NewSemesterRepository(db *sql.DB, logger zerolog.Logger) SemesterRepository {
	return &semesterRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *semesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	query := `
		INSERT INTO semesters (id, user_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		semester.ID,
		semester.UserID,
		semester.Name,
		semester.Position,
		semester.CreatedAt,
		semester.UpdatedAt,
	)

	return err
}

func (r *semesterRepository) GetByID(ctx context.Context, userID, id string) (*models.SemesterWithStats, error) {
	query := `
		SELECT
			s.id, s.user_id, s.name, s.position, s.created_at, s.updated_at,
			COUNT(a.id) as total_assessments,
			COUNT(CASE WHEN a.status = 'Submitted' THEN 1 END) as completed_assessments,
			COUNT(CASE WHEN a.id IS NOT NULL AND a.status <> 'Submitted' THEN 1 END) as pending_assessments
		FROM semesters s
		LEFT JOIN assessments a ON s.id = a.semester_id
		WHERE s.user_id = $1 AND s.id = $2
		GROUP BY s.id
	`

	semester := &models.SemesterWithStats{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&semester.ID,
		&semester.UserID,
		&semester.Name,
		&semester.Position,
		&semester.CreatedAt,
		&semester.UpdatedAt,
		&semester.TotalAssessments,
		&semester.CompletedAssessments,
		&semester.PendingAssessments,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return semester, err
}

func (r *semesterRepository) GetAll(ctx context.Context, userID string) ([]models.SemesterWithStats, error) {
	query := `
		SELECT
			s.id, s.user_id, s.name, s.position, s.created_at, s.updated_at,
			COUNT(a.id) as total_assessments,
			COUNT(CASE WHEN a.status = 'Submitted' THEN 1 END) as completed_assessments,
			COUNT(CASE WHEN a.id IS NOT NULL AND a.status <> 'Submitted' THEN 1 END) as pending_assessments
		FROM semesters s
		LEFT JOIN assessments a ON s.id = a.semester_id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.position ASC, s.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var semesters []models.SemesterWithStats
	for rows.Next() {
		var semester models.SemesterWithStats
		err := rows.Scan(
			&semester.ID,
			&semester.UserID,
			&semester.Name,
			&semester.Position,
			&semester.CreatedAt,
			&semester.UpdatedAt,
			&semester.TotalAssessments,
			&semester.CompletedAssessments,
			&semester.PendingAssessments,
		)
		if err != nil {
			return nil, err
		}
		semesters = append(semesters, semester)
	}

	return semesters, rows.Err()
}

func (r *semesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	query := `
		UPDATE semesters
		SET name = $1, updated_at = $2
		WHERE user_id = $3 AND id = $4
	`

	_, err := r.db.ExecContext(ctx, query,
		semester.Name,
		semester.UpdatedAt,
		semester.UserID,
		semester.ID,
	)

	return err
}

func (r *semesterRepository) UpdatePosition(ctx context.Context, userID, id string, position int) error {
	query := `
		UPDATE semesters
		SET position = $1, updated_at = now()
		WHERE user_id = $2 AND id = $3
	`

	_, err := r.db.ExecContext(ctx, query, position, userID, id)
	return err
}

// Delete removes the semester and every assessment and outline record beneath
// it as one transaction. The assessment rows go through an explicit DELETE so
// the purged count can be reported, the FK cascade is the safety net.
func (r *semesterRepository) Delete(ctx context.Context, userID, id string) (int, error) {
	var purged int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE semester_id = $1`, id)
		if err != nil {
			return err
		}
		purged, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DELETE FROM course_outlines WHERE semester_id = $1`, id); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM semesters WHERE user_id = $1 AND id = $2`, userID, id)
		return err
	})
	if err != nil {
		return 0, err
	}

	return int(purged), nil
}

func (r *semesterRepository) NameExists(ctx context.Context, userID, name, excludeID string) (bool, error) {
	// excludeID is empty on create; the id column is uuid-typed, so compare
	// as text to keep the empty string valid.
	query := `
		SELECT EXISTS(
			SELECT 1 FROM semesters
			WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND ($3 = '' OR id::text <> $3)
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, name, excludeID).Scan(&exists)
	return exists, err
}
