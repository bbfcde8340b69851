package calendar

import (
	"strings"
	"time"

	"github.com/asetta/kivo/internal/models"
)

// DayCell is one cell of the month grid, tagged with the assessments due
// that day. Date is the local calendar date in YYYY-MM-DD form.
type DayCell struct {
	Date           string              `json:"date"`
	Day            int                 `json:"day"`
	IsCurrentMonth bool                `json:"is_current_month"`
	IsToday        bool                `json:"is_today"`
	Assessments    []models.Assessment `json:"assessments"`
}

// Filter narrows the assessment list before bucketing. Zero values match
// everything.
type Filter struct {
	Course string
	Status string
	Query  string
}

func (f Filter) matches(a *models.Assessment) bool {
	if f.Course != "" && a.CourseName != f.Course {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.AssignmentName), q) &&
			!strings.Contains(strings.ToLower(a.CourseName), q) {
			return false
		}
	}
	return true
}

// BuildMonthGrid produces the Sunday-first 7-column grid for the given month:
// leading cells from the previous month pad the first week, trailing cells
// from the next month complete the last one, so the cell count is always a
// multiple of 7. Assessments are bucketed by exact due-date match, no
// timezone conversion. Pure for a given (year, month, assessments, filter,
// today) tuple.
func BuildMonthGrid(year int, month time.Month, assessments []models.Assessment, filter Filter, today time.Time) []DayCell {
	byDate := make(map[string][]models.Assessment)
	for _, a := range assessments {
		if !filter.matches(&a) {
			continue
		}
		byDate[a.DueDate] = append(byDate[a.DueDate], a)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	offset := int(first.Weekday()) // 0 = Sunday
	start := first.AddDate(0, 0, -offset)

	daysInMonth := first.AddDate(0, 1, -1).Day()
	total := offset + daysInMonth
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	todayStr := today.Format("2006-01-02")

	cells := make([]DayCell, 0, total)
	for i := 0; i < total; i++ {
		d := start.AddDate(0, 0, i)
		date := d.Format("2006-01-02")
		cells = append(cells, DayCell{
			Date:           date,
			Day:            d.Day(),
			IsCurrentMonth: d.Month() == month && d.Year() == year,
			IsToday:        date == todayStr,
			Assessments:    byDate[date],
		})
	}
	return cells
}
