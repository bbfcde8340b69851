package httpd

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/asetta/kivo/internal/calendar"
)

func (h *Handler) GetGradeReports(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	var targetOverride *float64
	if raw := r.URL.Query().Get("target"); raw != "" {
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil || target < 0 || target > 100 {
			writeError(w, http.StatusBadRequest, "target must be a number between 0 and 100")
			return
		}
		targetOverride = &target
	}

	ctx := r.Context()
	reports, err := h.reportService.GradeReports(ctx, user, semesterID, r.URL.Query().Get("course"), targetOverride)
	if err != nil {
		h.handleReportError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"reports": reports,
		"total":   len(reports),
	})
}

func (h *Handler) GetCourseSummaries(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	ctx := r.Context()
	summaries, err := h.reportService.CourseSummaries(ctx, user, semesterID)
	if err != nil {
		h.handleReportError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"courses": summaries,
		"total":   len(summaries),
	})
}

func (h *Handler) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	now := time.Now()
	year := getIntQueryParam(r, "year", now.Year())
	month := getIntQueryParam(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	filter := calendar.Filter{
		Course: r.URL.Query().Get("course"),
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
	}

	ctx := r.Context()
	cells, err := h.reportService.MonthGrid(ctx, user, semesterID, year, time.Month(month), filter)
	if err != nil {
		h.handleReportError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"year":  year,
		"month": month,
		"cells": cells,
		"weeks": len(cells) / 7,
	})
}

func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	semesterID, ok := pathID(w, r, "Semester ID")
	if !ok {
		return
	}

	ctx := r.Context()
	name, ics, err := h.reportService.ExportCalendar(ctx, user, semesterID)
	if err != nil {
		h.handleReportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".ics"))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ics))
}

func (h *Handler) handleReportError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch {
	case errMsg == "semester not found":
		writeError(w, http.StatusNotFound, errMsg)
	case errMsg == "invalid month" || errMsg == "invalid year":
		writeError(w, http.StatusBadRequest, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Report service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
