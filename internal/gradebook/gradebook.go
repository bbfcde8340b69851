package gradebook

import (
	"math"
	"time"

	"github.com/asetta/kivo/internal/models"
)

// GradeReport holds the derived numbers for one course. Current is nil when
// no submitted, marked assessments exist yet.
type GradeReport struct {
	CourseName   string       `json:"course_name"`
	TotalWeight  float64      `json:"total_weight"`
	OverWeighted bool         `json:"over_weighted"`
	GradedWeight float64      `json:"graded_weight"`
	Current      *float64     `json:"current_grade"`
	TargetGrade  float64      `json:"target_grade"`
	Required     RequiredInfo `json:"required"`
}

// RequiredInfo is the average mark needed on the remaining (ungraded) weight
// to reach the target grade. Value is nil when no ungraded weight remains.
type RequiredInfo struct {
	Value       *float64 `json:"value"`
	Unreachable bool     `json:"unreachable"`
	TargetMet   bool     `json:"target_met"`
}

// CourseSummary is the per-course roll-up shown on overview displays. It is
// recomputed from the live assessment set on every read, never persisted.
type CourseSummary struct {
	CourseName           string     `json:"course_name"`
	TotalAssessments     int        `json:"total_assessments"`
	CompletedAssessments int        `json:"completed_assessments"`
	PendingAssessments   int        `json:"pending_assessments"`
	Progress             int        `json:"progress"`
	NextDueDate          *time.Time `json:"next_due_date,omitempty"`
	NextAssignment       string     `json:"next_assignment,omitempty"`
}

// graded reports whether a counts toward the weighted average: submitted and
// carrying a mark. A nil mark means ungraded regardless of status.
func graded(a *models.Assessment) bool {
	return a.Status == models.StatusSubmitted && a.Mark != nil
}

// TotalWeight sums declared weight over every assessment, graded or not.
func TotalWeight(assessments []models.Assessment) float64 {
	var total float64
	for i := range assessments {
		total += assessments[i].Weight
	}
	return total
}

// CurrentGrade computes the weight-normalized average over submitted, marked
// assessments only. Ungraded work does not dilute the denominator. Returns
// nil when nothing is graded yet or the graded weight sums to zero.
func CurrentGrade(assessments []models.Assessment) *float64 {
	var weightedSum, gradedWeight float64
	for i := range assessments {
		a := &assessments[i]
		if !graded(a) {
			continue
		}
		weightedSum += *a.Mark * a.Weight / 100
		gradedWeight += a.Weight
	}
	if gradedWeight == 0 {
		return nil
	}
	current := weightedSum / gradedWeight * 100
	return &current
}

// RequiredAverage computes the average mark needed on all remaining weight to
// land exactly on targetGrade. Value is nil when no ungraded weight remains;
// results above 100 are flagged unreachable, negative results mean the target
// is already exceeded.
func RequiredAverage(assessments []models.Assessment, targetGrade float64) RequiredInfo {
	totalWeight := TotalWeight(assessments)

	var achievedSum, gradedWeight float64
	for i := range assessments {
		a := &assessments[i]
		if !graded(a) {
			continue
		}
		achievedSum += *a.Mark * a.Weight / 100
		gradedWeight += a.Weight
	}

	remaining := totalWeight - gradedWeight
	if remaining <= 0 {
		return RequiredInfo{}
	}

	required := (targetGrade*totalWeight/100 - achievedSum) / remaining * 100
	return RequiredInfo{
		Value:       &required,
		Unreachable: required > 100,
		TargetMet:   required < 0,
	}
}

// Report assembles the full grade report for one course.
func Report(courseName string, assessments []models.Assessment, targetGrade float64) GradeReport {
	var gradedWeight float64
	for i := range assessments {
		if graded(&assessments[i]) {
			gradedWeight += assessments[i].Weight
		}
	}

	total := TotalWeight(assessments)
	return GradeReport{
		CourseName:   courseName,
		TotalWeight:  total,
		OverWeighted: total > 100,
		GradedWeight: gradedWeight,
		Current:      CurrentGrade(assessments),
		TargetGrade:  targetGrade,
		Required:     RequiredAverage(assessments, targetGrade),
	}
}

// Summarize rolls the assessment list up into one CourseSummary per distinct
// course name, in order of first appearance. Grouping is exact string match
// on course name. "Next due" is the earliest due timestamp among
// non-completed assessments at or after now; ties keep the earlier entry in
// the input, which makes the result deterministic for a given input ordering.
func Summarize(assessments []models.Assessment, now time.Time) []CourseSummary {
	order := make([]string, 0)
	byCourse := make(map[string][]models.Assessment)
	for _, a := range assessments {
		if _, ok := byCourse[a.CourseName]; !ok {
			order = append(order, a.CourseName)
		}
		byCourse[a.CourseName] = append(byCourse[a.CourseName], a)
	}

	summaries := make([]CourseSummary, 0, len(order))
	for _, course := range order {
		list := byCourse[course]

		s := CourseSummary{
			CourseName:       course,
			TotalAssessments: len(list),
		}
		for i := range list {
			if list[i].Status == models.StatusSubmitted {
				s.CompletedAssessments++
			}
		}
		s.PendingAssessments = s.TotalAssessments - s.CompletedAssessments
		if s.TotalAssessments > 0 {
			s.Progress = int(math.Round(float64(s.CompletedAssessments) / float64(s.TotalAssessments) * 100))
		}

		for i := range list {
			a := &list[i]
			if a.Status == models.StatusSubmitted {
				continue
			}
			due, err := a.DueAt()
			if err != nil || due.Before(now) {
				continue
			}
			if s.NextDueDate == nil || due.Before(*s.NextDueDate) {
				d := due
				s.NextDueDate = &d
				s.NextAssignment = a.AssignmentName
			}
		}

		summaries = append(summaries, s)
	}
	return summaries
}
