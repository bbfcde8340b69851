package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/asetta/kivo/internal/models"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	settings, err := h.settingsService.GetSettings(ctx, user)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get settings")
		writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	writeSuccess(w, map[string]interface{}{
		"settings": settings,
		"total":    len(settings),
	})
}

func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.PutSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	setting, err := h.settingsService.PutSetting(ctx, user, &req)
	if err != nil {
		errMsg := err.Error()
		switch errMsg {
		case "setting key is required", "target grade must be a number between 0 and 100":
			writeError(w, http.StatusBadRequest, errMsg)
		default:
			h.logger.Error().Err(err).Msg("Settings service error")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeSuccess(w, setting)
}
