package httpd

import (
	"fmt"
	"io"
	"net/http"
)

const maxUploadMemory = 32 << 20

func (h *Handler) UploadOutline(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		// Single-file clients use the "file" field.
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "At least one PDF file is required")
		return
	}

	ctx := r.Context()
	responses := make([]interface{}, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to open uploaded file %s", header.Filename))
			return
		}

		resp, err := h.outlineService.Upload(ctx, user, semesterID, header.Filename, file, header.Size)
		file.Close()
		if err != nil {
			h.handleOutlineError(w, err)
			return
		}
		responses = append(responses, resp)
	}

	writeSuccess(w, map[string]interface{}{
		"outlines": responses,
		"total":    len(responses),
	})
}

func (h *Handler) GetOutlinesBySemester(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	ctx := r.Context()
	outlines, err := h.outlineService.GetBySemester(ctx, user, semesterID)
	if err != nil {
		h.handleOutlineError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"outlines": outlines,
		"total":    len(outlines),
	})
}

func (h *Handler) DownloadOutline(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	outlineID, ok := pathID(w, r, "Outline ID")
	if !ok {
		return
	}

	ctx := r.Context()
	outline, reader, err := h.outlineService.Download(ctx, user, outlineID)
	if err != nil {
		h.handleOutlineError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outline.FileName))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().Err(err).Str("outline_id", outlineID).Msg("Failed to stream outline")
	}
}

func (h *Handler) DeleteOutline(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	outlineID, ok := pathID(w, r, "Outline ID")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.outlineService.Delete(ctx, user, outlineID); err != nil {
		h.handleOutlineError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Outline deleted successfully",
	})
}

func (h *Handler) GetOutlineURL(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	outlineID, ok := pathID(w, r, "Outline ID")
	if !ok {
		return
	}

	url, ttl, err := h.outlineService.PresignedURL(r.Context(), user, outlineID)
	if err != nil {
		h.handleOutlineError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"url":        url,
		"expires_in": ttl,
	})
}

func (h *Handler) handleOutlineError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch {
	case errMsg == "outline not found" || errMsg == "semester not found":
		writeError(w, http.StatusNotFound, errMsg)
	case errMsg == "only PDF outlines are supported" || errMsg == "outline file size is out of range":
		writeError(w, http.StatusBadRequest, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Outline service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
