package httpd

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asetta/kivo/internal/models"
	"github.com/asetta/kivo/internal/repository"
)

func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var req models.CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	assessment, err := h.assessmentService.CreateAssessment(ctx, user, semesterID, &req)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) CreateAssessmentsBulk(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var reqs []models.CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for i := range reqs {
		if err := h.validate.Struct(&reqs[i]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx := r.Context()
	assessments, err := h.assessmentService.CreateAssessmentsBulk(ctx, user, semesterID, reqs)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assessments": assessments,
		"total":       len(assessments),
	})
}

func (h *Handler) GetAssessmentsBySemester(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	filter := repository.AssessmentFilter{
		CourseName: r.URL.Query().Get("course"),
		Status:     r.URL.Query().Get("status"),
		Query:      r.URL.Query().Get("q"),
	}

	ctx := r.Context()
	assessments, err := h.assessmentService.GetAssessmentsBySemester(ctx, user, semesterID, filter)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assessments": assessments,
		"total":       len(assessments),
	})
}

func (h *Handler) GetAssessmentByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	assessmentID, ok := pathID(w, r, "Assessment ID")
	if !ok {
		return
	}

	ctx := r.Context()
	assessment, err := h.assessmentService.GetAssessmentByID(ctx, user, assessmentID)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) UpdateAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	assessmentID, ok := pathID(w, r, "Assessment ID")
	if !ok {
		return
	}

	var req models.UpdateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	assessment, err := h.assessmentService.UpdateAssessment(ctx, user, assessmentID, &req)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) UpdateAssessmentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	assessmentID, ok := pathID(w, r, "Assessment ID")
	if !ok {
		return
	}

	var req models.UpdateAssessmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.assessmentService.UpdateStatus(ctx, user, assessmentID, req.Status); err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assessment status updated successfully",
	})
}

func (h *Handler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	assessmentID, ok := pathID(w, r, "Assessment ID")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.assessmentService.DeleteAssessment(ctx, user, assessmentID); err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assessment deleted successfully",
	})
}

func (h *Handler) AutoSave(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var req models.AutoSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	status, err := h.assessmentService.AutoSave(ctx, user, semesterID, req.Entries)
	if err != nil {
		h.handleAssessmentError(w, err)
		return
	}

	// The save is accepted, not necessarily persisted yet: the coordinator
	// waits out the quiet period before writing.
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"data":    status,
	})
}

func (h *Handler) AutoSaveStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	writeSuccess(w, h.assessmentService.AutoSaveStatus(semesterID))
}

func (h *Handler) handleAssessmentError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch {
	case errMsg == "assessment not found" || errMsg == "semester not found":
		writeError(w, http.StatusNotFound, errMsg)
	case errMsg == "no assessments provided":
		writeError(w, http.StatusBadRequest, errMsg)
	case strings.Contains(errMsg, "invalid assessment status"):
		writeError(w, http.StatusBadRequest, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Assessment service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
