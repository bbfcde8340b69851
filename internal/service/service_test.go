package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
	"github.com/asetta/kivo/internal/service/storage"
)

const (
	ownerID    = "550e8400-e29b-41d4-a716-446655440000"
	strangerID = "550e8400-e29b-41d4-a716-446655440099"
	semID      = "650e8400-e29b-41d4-a716-446655440001"
	assessID   = "750e8400-e29b-41d4-a716-446655440002"
	outlineID  = "850e8400-e29b-41d4-a716-446655440003"
)

// Repository stubs. Only the funcs a test sets are ever called; a nil func
// reaching the service is a test bug and panics loudly.

type stubSemesterRepo struct {
	createFn     func(ctx context.Context, semester *models.Semester) error
	getByIDFn    func(ctx context.Context, userID, id string) (*models.SemesterWithStats, error)
	getAllFn     func(ctx context.Context, userID string) ([]models.SemesterWithStats, error)
	updateFn     func(ctx context.Context, semester *models.Semester) error
	positionFn   func(ctx context.Context, userID, id string, position int) error
	deleteFn     func(ctx context.Context, userID, id string) (int, error)
	nameExistsFn func(ctx context.Context, userID, name, excludeID string) (bool, error)
}

func (s *stubSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	return s.createFn(ctx, semester)
}
func (s *stubSemesterRepo) GetByID(ctx context.Context, userID, id string) (*models.SemesterWithStats, error) {
	return s.getByIDFn(ctx, userID, id)
}
func (s *stubSemesterRepo) GetAll(ctx context.Context, userID string) ([]models.SemesterWithStats, error) {
	return s.getAllFn(ctx, userID)
}
func (s *stubSemesterRepo) Update(ctx context.Context, semester *models.Semester) error {
	return s.updateFn(ctx, semester)
}
func (s *stubSemesterRepo) UpdatePosition(ctx context.Context, userID, id string, position int) error {
	return s.positionFn(ctx, userID, id, position)
}
func (s *stubSemesterRepo) Delete(ctx context.Context, userID, id string) (int, error) {
	return s.deleteFn(ctx, userID, id)
}
func (s *stubSemesterRepo) NameExists(ctx context.Context, userID, name, excludeID string) (bool, error) {
	return s.nameExistsFn(ctx, userID, name, excludeID)
}

// ownedSemesterRepo answers GetByID only for the owning user, the way the
// user_id predicate does in SQL.
func ownedSemesterRepo(owner, id string) *stubSemesterRepo {
	return &stubSemesterRepo{
		getByIDFn: func(_ context.Context, userID, gotID string) (*models.SemesterWithStats, error) {
			if userID != owner || gotID != id {
				return nil, nil
			}
			return &models.SemesterWithStats{
				Semester: models.Semester{ID: id, UserID: owner, Name: "Fall 2026"},
			}, nil
		},
	}
}

type stubAssessmentRepo struct {
	createFn      func(ctx context.Context, assessment *models.Assessment) error
	createBatchFn func(ctx context.Context, assessments []models.Assessment) error
	getByIDFn     func(ctx context.Context, id string) (*models.Assessment, error)
	listFn        func(ctx context.Context, semesterID string, filter repository.AssessmentFilter) ([]models.Assessment, error)
	updateFn      func(ctx context.Context, assessment *models.Assessment) error
	fieldsFn      func(ctx context.Context, id string, mark *float64, weight float64, status string) error
	batchFn       func(ctx context.Context, semesterID string, entries []models.AssessmentSnapshotEntry) error
	deleteFn      func(ctx context.Context, id string) error
}

func (s *stubAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	return s.createFn(ctx, assessment)
}
func (s *stubAssessmentRepo) CreateBatch(ctx context.Context, assessments []models.Assessment) error {
	return s.createBatchFn(ctx, assessments)
}
func (s *stubAssessmentRepo) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubAssessmentRepo) GetBySemester(ctx context.Context, semesterID string, filter repository.AssessmentFilter) ([]models.Assessment, error) {
	return s.listFn(ctx, semesterID, filter)
}
func (s *stubAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	return s.updateFn(ctx, assessment)
}
func (s *stubAssessmentRepo) UpdateFields(ctx context.Context, id string, mark *float64, weight float64, status string) error {
	return s.fieldsFn(ctx, id, mark, weight, status)
}
func (s *stubAssessmentRepo) UpdateFieldsBatch(ctx context.Context, semesterID string, entries []models.AssessmentSnapshotEntry) error {
	return s.batchFn(ctx, semesterID, entries)
}
func (s *stubAssessmentRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubOutlineRepo struct {
	createFn  func(ctx context.Context, outline *models.CourseOutline) error
	getByIDFn func(ctx context.Context, id string) (*models.CourseOutline, error)
	listFn    func(ctx context.Context, semesterID string) ([]models.CourseOutline, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (s *stubOutlineRepo) Create(ctx context.Context, outline *models.CourseOutline) error {
	return s.createFn(ctx, outline)
}
func (s *stubOutlineRepo) GetByID(ctx context.Context, id string) (*models.CourseOutline, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubOutlineRepo) GetBySemester(ctx context.Context, semesterID string) ([]models.CourseOutline, error) {
	return s.listFn(ctx, semesterID)
}
func (s *stubOutlineRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubStorage struct {
	uploadFn   func(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	downloadFn func(ctx context.Context, key string) (io.ReadCloser, int64, error)
	deleteFn   func(ctx context.Context, key string) error
	existsFn   func(ctx context.Context, key string) (bool, error)
	presignFn  func(ctx context.Context, key string, expiresIn int64) (string, error)
}

var _ storage.ObjectStorage = (*stubStorage)(nil)

func (s *stubStorage) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	return s.uploadFn(ctx, key, data, size, contentType)
}
func (s *stubStorage) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return s.downloadFn(ctx, key)
}
func (s *stubStorage) Delete(ctx context.Context, key string) error {
	return s.deleteFn(ctx, key)
}
func (s *stubStorage) Exists(ctx context.Context, key string) (bool, error) {
	return s.existsFn(ctx, key)
}
func (s *stubStorage) GeneratePresignedURL(ctx context.Context, key string, expiresIn int64) (string, error) {
	return s.presignFn(ctx, key, expiresIn)
}

func TestCreateSemester(t *testing.T) {
	ctx := context.Background()

	t.Run("first semester of a fresh user", func(t *testing.T) {
		var created *models.Semester
		repo := &stubSemesterRepo{
			nameExistsFn: func(_ context.Context, userID, name, excludeID string) (bool, error) {
				assert.Equal(t, ownerID, userID)
				assert.Equal(t, "Fall 2026", name)
				// Creation has nothing to exclude.
				assert.Empty(t, excludeID)
				return false, nil
			},
			getAllFn: func(_ context.Context, _ string) ([]models.SemesterWithStats, error) {
				return nil, nil
			},
			createFn: func(_ context.Context, semester *models.Semester) error {
				created = semester
				return nil
			},
		}
		svc := NewSemesterService(repo, nil, zerolog.Nop())

		semester, err := svc.CreateSemester(ctx, ownerID, &models.CreateSemesterRequest{Name: "  Fall 2026  "})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "Fall 2026", semester.Name)
		assert.Equal(t, ownerID, semester.UserID)
		assert.Equal(t, 0, semester.Position)
	})

	t.Run("appends after existing semesters", func(t *testing.T) {
		repo := &stubSemesterRepo{
			nameExistsFn: func(_ context.Context, _, _, _ string) (bool, error) { return false, nil },
			getAllFn: func(_ context.Context, _ string) ([]models.SemesterWithStats, error) {
				return make([]models.SemesterWithStats, 3), nil
			},
			createFn: func(_ context.Context, _ *models.Semester) error { return nil },
		}
		svc := NewSemesterService(repo, nil, zerolog.Nop())

		semester, err := svc.CreateSemester(ctx, ownerID, &models.CreateSemesterRequest{Name: "Winter 2027"})

		require.NoError(t, err)
		assert.Equal(t, 3, semester.Position)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := &stubSemesterRepo{
			nameExistsFn: func(_ context.Context, _, _, _ string) (bool, error) { return true, nil },
		}
		svc := NewSemesterService(repo, nil, zerolog.Nop())

		_, err := svc.CreateSemester(ctx, ownerID, &models.CreateSemesterRequest{Name: "Fall 2026"})
		assert.EqualError(t, err, "semester name already exists")
	})

	t.Run("blank name", func(t *testing.T) {
		svc := NewSemesterService(&stubSemesterRepo{}, nil, zerolog.Nop())
		_, err := svc.CreateSemester(ctx, ownerID, &models.CreateSemesterRequest{Name: "   "})
		assert.EqualError(t, err, "semester name is required")
	})
}

func TestAssessmentOwnership(t *testing.T) {
	ctx := context.Background()
	stored := &models.Assessment{
		ID:         assessID,
		SemesterID: semID,
		CourseName: "MATH 101",
		Status:     models.StatusNotStarted,
		Weight:     30,
	}
	assessmentRepo := &stubAssessmentRepo{
		getByIDFn: func(_ context.Context, id string) (*models.Assessment, error) {
			if id != assessID {
				return nil, nil
			}
			a := *stored
			return &a, nil
		},
	}
	svc := NewAssessmentService(assessmentRepo, ownedSemesterRepo(ownerID, semID), time.Second, zerolog.Nop())
	defer svc.Close()

	t.Run("owner reads it", func(t *testing.T) {
		assessment, err := svc.GetAssessmentByID(ctx, ownerID, assessID)
		require.NoError(t, err)
		assert.Equal(t, "MATH 101", assessment.CourseName)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := svc.GetAssessmentByID(ctx, strangerID, assessID)
		assert.EqualError(t, err, "assessment not found")
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		_, err := svc.UpdateAssessment(ctx, strangerID, assessID, &models.UpdateAssessmentRequest{
			CourseName:     "MATH 101",
			AssignmentName: "Midterm",
			DueDate:        "2026-10-15",
			Status:         models.StatusSubmitted,
		})
		assert.EqualError(t, err, "assessment not found")
	})

	t.Run("stranger cannot change status", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, strangerID, assessID, models.StatusSubmitted)
		assert.EqualError(t, err, "assessment not found")
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := svc.DeleteAssessment(ctx, strangerID, assessID)
		assert.EqualError(t, err, "assessment not found")
	})
}

func TestAutoSaveWritesScopedBatch(t *testing.T) {
	ctx := context.Background()
	mark := 88.0

	type batchCall struct {
		semesterID string
		entries    []models.AssessmentSnapshotEntry
	}
	calls := make(chan batchCall, 1)

	assessmentRepo := &stubAssessmentRepo{
		listFn: func(_ context.Context, semesterID string, _ repository.AssessmentFilter) ([]models.Assessment, error) {
			return []models.Assessment{{ID: assessID, SemesterID: semesterID, Weight: 30, Status: models.StatusNotStarted}}, nil
		},
		batchFn: func(_ context.Context, semesterID string, entries []models.AssessmentSnapshotEntry) error {
			calls <- batchCall{semesterID: semesterID, entries: entries}
			return nil
		},
	}
	svc := NewAssessmentService(assessmentRepo, ownedSemesterRepo(ownerID, semID), 10*time.Millisecond, zerolog.Nop())
	defer svc.Close()

	resp, err := svc.AutoSave(ctx, ownerID, semID, []models.AssessmentSnapshotEntry{
		{ID: assessID, Mark: &mark, Weight: 30, Status: models.StatusSubmitted},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	select {
	case call := <-calls:
		assert.Equal(t, semID, call.semesterID)
		require.Len(t, call.entries, 1)
		assert.Equal(t, assessID, call.entries[0].ID)
		assert.Equal(t, models.StatusSubmitted, call.entries[0].Status)
	case <-time.After(2 * time.Second):
		t.Fatal("batch write never happened")
	}
}

func TestAutoSaveRejectsForeignSemester(t *testing.T) {
	svc := NewAssessmentService(&stubAssessmentRepo{}, ownedSemesterRepo(ownerID, semID), time.Second, zerolog.Nop())
	defer svc.Close()

	_, err := svc.AutoSave(context.Background(), strangerID, semID, []models.AssessmentSnapshotEntry{
		{ID: assessID, Weight: 30, Status: models.StatusSubmitted},
	})
	assert.EqualError(t, err, "semester not found")
}

func TestOutlineOwnership(t *testing.T) {
	ctx := context.Background()
	stored := &models.CourseOutline{
		ID:         outlineID,
		SemesterID: semID,
		FileName:   "math101.pdf",
		ObjectKey:  "outlines/" + semID + "/math101.pdf",
		Size:       4,
	}
	outlineRepo := &stubOutlineRepo{
		getByIDFn: func(_ context.Context, id string) (*models.CourseOutline, error) {
			if id != outlineID {
				return nil, nil
			}
			o := *stored
			return &o, nil
		},
	}

	t.Run("stranger cannot download", func(t *testing.T) {
		svc := NewOutlineService(outlineRepo, ownedSemesterRepo(ownerID, semID), &stubStorage{}, nil, zerolog.Nop())
		_, _, err := svc.Download(ctx, strangerID, outlineID)
		assert.EqualError(t, err, "outline not found")
	})

	t.Run("stranger cannot get a link", func(t *testing.T) {
		svc := NewOutlineService(outlineRepo, ownedSemesterRepo(ownerID, semID), &stubStorage{}, nil, zerolog.Nop())
		_, _, err := svc.PresignedURL(ctx, strangerID, outlineID)
		assert.EqualError(t, err, "outline not found")
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		svc := NewOutlineService(outlineRepo, ownedSemesterRepo(ownerID, semID), &stubStorage{}, nil, zerolog.Nop())
		err := svc.Delete(ctx, strangerID, outlineID)
		assert.EqualError(t, err, "outline not found")
	})

	t.Run("owner gets a short-lived link", func(t *testing.T) {
		store := &stubStorage{
			presignFn: func(_ context.Context, key string, expiresIn int64) (string, error) {
				assert.Equal(t, stored.ObjectKey, key)
				assert.Equal(t, presignedOutlineTTL, expiresIn)
				return "https://storage.local/signed", nil
			},
		}
		svc := NewOutlineService(outlineRepo, ownedSemesterRepo(ownerID, semID), store, nil, zerolog.Nop())

		url, ttl, err := svc.PresignedURL(ctx, ownerID, outlineID)

		require.NoError(t, err)
		assert.Equal(t, "https://storage.local/signed", url)
		assert.Equal(t, presignedOutlineTTL, ttl)
	})
}

func TestDeleteOutlineObjectLifecycle(t *testing.T) {
	ctx := context.Background()
	stored := &models.CourseOutline{
		ID:         outlineID,
		SemesterID: semID,
		FileName:   "math101.pdf",
		ObjectKey:  "outlines/" + semID + "/math101.pdf",
	}

	newRepo := func(deleted *string) *stubOutlineRepo {
		return &stubOutlineRepo{
			getByIDFn: func(_ context.Context, id string) (*models.CourseOutline, error) {
				o := *stored
				return &o, nil
			},
			deleteFn: func(_ context.Context, id string) error {
				*deleted = id
				return nil
			},
		}
	}

	t.Run("object removed with metadata", func(t *testing.T) {
		var deletedMeta, deletedObj string
		store := &stubStorage{
			existsFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
			deleteFn: func(_ context.Context, key string) error {
				deletedObj = key
				return nil
			},
		}
		svc := NewOutlineService(newRepo(&deletedMeta), ownedSemesterRepo(ownerID, semID), store, nil, zerolog.Nop())

		require.NoError(t, svc.Delete(ctx, ownerID, outlineID))
		assert.Equal(t, outlineID, deletedMeta)
		assert.Equal(t, stored.ObjectKey, deletedObj)
	})

	t.Run("missing object does not block metadata delete", func(t *testing.T) {
		var deletedMeta string
		store := &stubStorage{
			existsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		}
		svc := NewOutlineService(newRepo(&deletedMeta), ownedSemesterRepo(ownerID, semID), store, nil, zerolog.Nop())

		require.NoError(t, svc.Delete(ctx, ownerID, outlineID))
		assert.Equal(t, outlineID, deletedMeta)
	})
}
