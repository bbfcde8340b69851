package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/asetta/kivo/internal/models"
)

func (h *Handler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateSemesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	semester, err := h.semesterService.CreateSemester(ctx, user, &req)
	if err != nil {
		h.handleSemesterError(w, err)
		return
	}

	writeSuccess(w, semester)
}

func (h *Handler) GetSemesterByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	ctx := r.Context()
	semester, err := h.semesterService.GetSemesterByID(ctx, user, semesterID)
	if err != nil {
		h.handleSemesterError(w, err)
		return
	}

	writeSuccess(w, semester)
}

func (h *Handler) GetAllSemesters(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	semesters, err := h.semesterService.GetAllSemesters(ctx, user)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get semesters")
		writeError(w, http.StatusInternalServerError, "Failed to get semesters")
		return
	}

	writeSuccess(w, map[string]interface{}{
		"semesters": semesters,
		"total":     len(semesters),
	})
}

func (h *Handler) RenameSemester(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var req models.CreateSemesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.semesterService.RenameSemester(ctx, user, semesterID, &req); err != nil {
		h.handleSemesterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Semester renamed successfully",
	})
}

func (h *Handler) UpdateSemesterPosition(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var req models.UpdateSemesterPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.semesterService.UpdatePosition(ctx, user, semesterID, req.Position); err != nil {
		h.handleSemesterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Semester position updated successfully",
	})
}

func (h *Handler) DeleteSemester(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.semesterService.DeleteSemester(ctx, user, semesterID); err != nil {
		h.handleSemesterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Semester and its assessments deleted successfully",
	})
}

func (h *Handler) handleSemesterError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch {
	case errMsg == "semester not found":
		writeError(w, http.StatusNotFound, errMsg)
	case errMsg == "semester name already exists":
		writeError(w, http.StatusConflict, errMsg)
	case errMsg == "semester name is required":
		writeError(w, http.StatusBadRequest, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Semester service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
