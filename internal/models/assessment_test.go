package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Draft", StatusNotStarted},
		{"Under Review", StatusInProgress},
		{StatusSubmitted, StatusSubmitted},
		{StatusMissed, StatusMissed},
		{"bogus", "bogus"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in))
	}

	assert.True(t, ValidStatus(StatusNotStarted))
	assert.False(t, ValidStatus("bogus"))
	assert.False(t, ValidStatus(""))
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.0, ClampWeight(-5))
	assert.Equal(t, 100.0, ClampWeight(150))
	assert.Equal(t, 42.5, ClampWeight(42.5))

	assert.Nil(t, ClampMark(nil))

	neg := -10.0
	clamped := ClampMark(&neg)
	require.NotNil(t, clamped)
	assert.Equal(t, 0.0, *clamped)

	// Bonus marks above 100 pass through.
	bonus := 105.0
	kept := ClampMark(&bonus)
	require.NotNil(t, kept)
	assert.Equal(t, 105.0, *kept)
}

func TestDueAt(t *testing.T) {
	a := Assessment{DueDate: "2026-03-15", DueTime: "09:30"}
	due, err := a.DueAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local), due)

	// Missing time defaults to midnight.
	a = Assessment{DueDate: "2026-03-15"}
	due, err = a.DueAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local), due)

	a = Assessment{DueDate: "not-a-date", DueTime: "09:30"}
	_, err = a.DueAt()
	assert.Error(t, err)
}
