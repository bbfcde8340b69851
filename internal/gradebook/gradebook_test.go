package gradebook

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asetta/kivo/internal/models"
)

func mark(v float64) *float64 { return &v }

func submitted(course string, weight, m float64) models.Assessment {
	return models.Assessment{
		CourseName: course,
		Weight:     weight,
		Status:     models.StatusSubmitted,
		Mark:       mark(m),
	}
}

func pending(course string, weight float64, status string) models.Assessment {
	return models.Assessment{
		CourseName: course,
		Weight:     weight,
		Status:     status,
	}
}

func TestCurrentGrade(t *testing.T) {
	tests := []struct {
		name        string
		assessments []models.Assessment
		want        *float64
	}{
		{
			name: "empty list",
			want: nil,
		},
		{
			name:        "no graded entries",
			assessments: []models.Assessment{pending("CS 101", 30, models.StatusInProgress)},
			want:        nil,
		},
		{
			name: "submitted without mark is excluded",
			assessments: []models.Assessment{
				pending("CS 101", 30, models.StatusSubmitted),
			},
			want: nil,
		},
		{
			name: "single graded",
			assessments: []models.Assessment{
				submitted("CS 101", 30, 80),
			},
			want: mark(80),
		},
		{
			name: "weight-normalized over graded only",
			assessments: []models.Assessment{
				submitted("CS 101", 30, 80),
				submitted("CS 101", 10, 60),
				pending("CS 101", 60, models.StatusNotStarted),
			},
			// (80*0.3 + 60*0.1) / 40 * 100 = 75
			want: mark(75),
		},
		{
			name: "zero graded weight guards division",
			assessments: []models.Assessment{
				submitted("CS 101", 0, 90),
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentGrade(tt.assessments)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
			assert.False(t, math.IsNaN(*got))
		})
	}
}

func TestCurrentGradeOrderIndependent(t *testing.T) {
	a := submitted("CS 101", 30, 80)
	b := submitted("CS 101", 20, 65)
	c := pending("CS 101", 50, models.StatusNotStarted)

	first := CurrentGrade([]models.Assessment{a, b, c})
	second := CurrentGrade([]models.Assessment{c, b, a})
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.InDelta(t, *first, *second, 1e-9)
}

func TestRequiredAverageScenario(t *testing.T) {
	// A: 30% weight at 80, B and C unmarked. Target 85 over total 100 needs
	// (85 - 24) / 70 * 100 on the remaining work.
	assessments := []models.Assessment{
		submitted("CS 101", 30, 80),
		pending("CS 101", 20, models.StatusInProgress),
		pending("CS 101", 50, models.StatusNotStarted),
	}

	assert.InDelta(t, 100.0, TotalWeight(assessments), 1e-9)

	current := CurrentGrade(assessments)
	require.NotNil(t, current)
	assert.InDelta(t, 80.0, *current, 1e-9)

	req := RequiredAverage(assessments, 85)
	require.NotNil(t, req.Value)
	assert.InDelta(t, (85.0-24.0)/70.0*100, *req.Value, 1e-9)
	assert.False(t, req.Unreachable)
	assert.False(t, req.TargetMet)
}

func TestRequiredAverageInverse(t *testing.T) {
	// Substituting the required mark on all remaining weight must reproduce
	// the target as the new overall weighted average.
	tests := []struct {
		name   string
		graded []models.Assessment
		rest   []float64 // weights of ungraded work
		target float64
	}{
		{"single remaining", []models.Assessment{submitted("M", 30, 80)}, []float64{70}, 85},
		{"split remaining", []models.Assessment{submitted("M", 25, 60), submitted("M", 15, 92)}, []float64{30, 30}, 70},
		{"low target", []models.Assessment{submitted("M", 40, 95)}, []float64{60}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessments := append([]models.Assessment{}, tt.graded...)
			for _, w := range tt.rest {
				assessments = append(assessments, pending("M", w, models.StatusNotStarted))
			}

			req := RequiredAverage(assessments, tt.target)
			require.NotNil(t, req.Value)

			hypothetical := append([]models.Assessment{}, tt.graded...)
			for _, w := range tt.rest {
				hypothetical = append(hypothetical, submitted("M", w, *req.Value))
			}
			final := CurrentGrade(hypothetical)
			require.NotNil(t, final)
			assert.InDelta(t, tt.target, *final, 1e-9)
		})
	}
}

func TestRequiredAverageEdges(t *testing.T) {
	t.Run("no remaining weight", func(t *testing.T) {
		req := RequiredAverage([]models.Assessment{submitted("M", 100, 70)}, 85)
		assert.Nil(t, req.Value)
	})

	t.Run("empty course", func(t *testing.T) {
		req := RequiredAverage(nil, 85)
		assert.Nil(t, req.Value)
	})

	t.Run("unreachable", func(t *testing.T) {
		req := RequiredAverage([]models.Assessment{
			submitted("M", 80, 40),
			pending("M", 20, models.StatusNotStarted),
		}, 90)
		require.NotNil(t, req.Value)
		assert.True(t, req.Unreachable)
		assert.False(t, req.TargetMet)
	})

	t.Run("target already exceeded", func(t *testing.T) {
		req := RequiredAverage([]models.Assessment{
			submitted("M", 90, 99),
			pending("M", 10, models.StatusNotStarted),
		}, 50)
		require.NotNil(t, req.Value)
		assert.True(t, req.TargetMet)
		assert.False(t, req.Unreachable)
	})
}

func TestReportFlags(t *testing.T) {
	report := Report("CS 101", []models.Assessment{
		submitted("CS 101", 60, 75),
		pending("CS 101", 55, models.StatusInProgress),
	}, 85)

	assert.Equal(t, "CS 101", report.CourseName)
	assert.InDelta(t, 115.0, report.TotalWeight, 1e-9)
	assert.True(t, report.OverWeighted)
	assert.InDelta(t, 60.0, report.GradedWeight, 1e-9)
	require.NotNil(t, report.Current)
	assert.InDelta(t, 75.0, *report.Current, 1e-9)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	assessments := []models.Assessment{
		{CourseName: "CS 101", AssignmentName: "Quiz 1", DueDate: "2026-03-01", DueTime: "10:00", Status: models.StatusSubmitted, Mark: mark(88)},
		{CourseName: "CS 101", AssignmentName: "Midterm", DueDate: "2026-03-20", DueTime: "09:00", Status: models.StatusNotStarted},
		{CourseName: "CS 101", AssignmentName: "Essay", DueDate: "2026-03-15", DueTime: "23:59", Status: models.StatusInProgress},
		{CourseName: "MATH 200", AssignmentName: "PSet 4", DueDate: "2026-03-05", DueTime: "17:00", Status: models.StatusMissed},
	}

	summaries := Summarize(assessments, now)
	require.Len(t, summaries, 2)

	cs := summaries[0]
	assert.Equal(t, "CS 101", cs.CourseName)
	assert.Equal(t, 3, cs.TotalAssessments)
	assert.Equal(t, 1, cs.CompletedAssessments)
	assert.Equal(t, 2, cs.PendingAssessments)
	assert.Equal(t, 33, cs.Progress)
	require.NotNil(t, cs.NextDueDate)
	assert.Equal(t, "Essay", cs.NextAssignment) // earliest upcoming non-completed

	mathCourse := summaries[1]
	assert.Equal(t, "MATH 200", mathCourse.CourseName)
	assert.Equal(t, 0, mathCourse.CompletedAssessments)
	// Its only assessment is overdue, so nothing upcoming remains.
	assert.Nil(t, mathCourse.NextDueDate)
	assert.Equal(t, 0, mathCourse.Progress)
}

func TestSummarizeTieBreakDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	assessments := []models.Assessment{
		{CourseName: "CS 101", AssignmentName: "Lab A", DueDate: "2026-03-05", DueTime: "10:00", Status: models.StatusNotStarted},
		{CourseName: "CS 101", AssignmentName: "Lab B", DueDate: "2026-03-05", DueTime: "10:00", Status: models.StatusNotStarted},
	}

	for i := 0; i < 5; i++ {
		summaries := Summarize(assessments, now)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Lab A", summaries[0].NextAssignment)
	}
}

func TestSummarizeExactNameGrouping(t *testing.T) {
	now := time.Now()
	summaries := Summarize([]models.Assessment{
		{CourseName: "cs 101", Status: models.StatusNotStarted, DueDate: "2099-01-01"},
		{CourseName: "CS 101", Status: models.StatusNotStarted, DueDate: "2099-01-01"},
	}, now)
	// Case differences split groups, matching string-equality grouping.
	assert.Len(t, summaries, 2)
}
