package httpd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/service"
)

type Handler struct {
	semesterService   service.SemesterService
	assessmentService service.AssessmentService
	reportService     service.ReportService
	outlineService    service.OutlineService
	settingsService   service.SettingsService
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewHandler(
	semesterService service.SemesterService,
	assessmentService service.AssessmentService,
	reportService service.ReportService,
	outlineService service.OutlineService,
	settingsService service.SettingsService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		semesterService:   semesterService,
		assessmentService: assessmentService,
		reportService:     reportService,
		outlineService:    outlineService,
		settingsService:   settingsService,
		validate:          validator.New(),
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/semesters", func(r chi.Router) {
			r.Post("/", h.CreateSemester)
			r.Get("/", h.GetAllSemesters)
			r.Get("/{id}", h.GetSemesterByID)
			r.Put("/{id}", h.RenameSemester)
			r.Put("/{id}/position", h.UpdateSemesterPosition)
			r.Delete("/{id}", h.DeleteSemester)

			r.Post("/{id}/assessments", h.CreateAssessment)
			r.Post("/{id}/assessments/bulk", h.CreateAssessmentsBulk)
			r.Get("/{id}/assessments", h.GetAssessmentsBySemester)
			r.Put("/{id}/assessments/autosave", h.AutoSave)
			r.Get("/{id}/assessments/autosave", h.AutoSaveStatus)

			r.Get("/{id}/grades", h.GetGradeReports)
			r.Get("/{id}/courses", h.GetCourseSummaries)
			r.Get("/{id}/calendar", h.GetMonthGrid)
			r.Get("/{id}/calendar.ics", h.ExportCalendar)

			r.Post("/{id}/outlines", h.UploadOutline)
			r.Get("/{id}/outlines", h.GetOutlinesBySemester)
		})

		api.Route("/assessments", func(r chi.Router) {
			r.Get("/{id}", h.GetAssessmentByID)
			r.Put("/{id}", h.UpdateAssessment)
			r.Put("/{id}/status", h.UpdateAssessmentStatus)
			r.Delete("/{id}", h.DeleteAssessment)
		})

		api.Route("/outlines", func(r chi.Router) {
			r.Get("/{id}/download", h.DownloadOutline)
			r.Get("/{id}/url", h.GetOutlineURL)
			r.Delete("/{id}", h.DeleteOutline)
		})

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.PutSetting)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "kivo",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

// userID pulls the owner id from the X-User-ID header. Authentication itself
// is handled upstream; the id only scopes data ownership.
func userID(r *http.Request) string {
	id := r.Header.Get("X-User-ID")
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "Valid X-User-ID header is required")
		return "", false
	}
	return id, true
}

// pathID validates the {id} path segment. The id columns are uuid-typed, so
// rejecting garbage here keeps parse failures out of the database layer.
func pathID(w http.ResponseWriter, r *http.Request, label string) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, label+" must be a valid UUID")
		return "", false
	}
	return id, true
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
