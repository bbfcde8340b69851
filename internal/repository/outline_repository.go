package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

type OutlineRepository interface {
	Create(ctx context.Context, outline *models.CourseOutline) error
	GetByID(ctx context.Context, id string) (*models.CourseOutline, error)
	GetBySemester(ctx context.Context, semesterID string) ([]models.CourseOutline, error)
	Delete(ctx context.Context, id string) error
}

type outlineRepository struct {
	*PostgresRepository
}

func NewOutlineRepository(db *sql.DB, logger zerolog.Logger) OutlineRepository {
	return &outlineRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *outlineRepository) Create(ctx context.Context, outline *models.CourseOutline) error {
	query := `
		INSERT INTO course_outlines (id, semester_id, file_name, object_key, size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		outline.ID,
		outline.SemesterID,
		outline.FileName,
		outline.ObjectKey,
		outline.Size,
		outline.UploadedAt,
	)

	return err
}

func (r *outlineRepository) GetByID(ctx context.Context, id string) (*models.CourseOutline, error) {
	query := `
		SELECT id, semester_id, file_name, object_key, size, uploaded_at
		FROM course_outlines
		WHERE id = $1
	`

	outline := &models.CourseOutline{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&outline.ID,
		&outline.SemesterID,
		&outline.FileName,
		&outline.ObjectKey,
		&outline.Size,
		&outline.UploadedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return outline, err
}

func (r *outlineRepository) GetBySemester(ctx context.Context, semesterID string) ([]models.CourseOutline, error) {
	query := `
		SELECT id, semester_id, file_name, object_key, size, uploaded_at
		FROM course_outlines
		WHERE semester_id = $1
		ORDER BY uploaded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outlines []models.CourseOutline
	for rows.Next() {
		var o models.CourseOutline
		err := rows.Scan(&o.ID, &o.SemesterID, &o.FileName, &o.ObjectKey, &o.Size, &o.UploadedAt)
		if err != nil {
			return nil, err
		}
		outlines = append(outlines, o)
	}

	return outlines, rows.Err()
}

func (r *outlineRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM course_outlines WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
