package clinic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayOf(t *testing.T) {
	// 2024-01-15 is a Monday
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Monday, WeekdayOf(monday))
	assert.Equal(t, Tuesday, WeekdayOf(monday.AddDate(0, 0, 1)))
	assert.Equal(t, Saturday, WeekdayOf(monday.AddDate(0, 0, 5)))
	assert.Equal(t, Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
	assert.Equal(t, Monday, WeekdayOf(monday.AddDate(0, 0, 7)))
}

func TestWeekdayString(t *testing.T) {
	assert.Equal(t, "Monday", Monday.String())
	assert.Equal(t, "Sunday", Sunday.String())
	assert.Equal(t, "weekday(9)", Weekday(9).String())
	assert.False(t, Weekday(-1).Valid())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("doctor")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, r)

	_, ok = ParseRole("nurse")
	assert.False(t, ok)
}

func TestVisitStatusValid(t *testing.T) {
	for _, s := range []VisitStatus{VisitScheduled, VisitActive, VisitVisited, VisitMissed, VisitCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, VisitStatus("pending").Valid())
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, 3, 9, 17, 45, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), DateOnly(ts))
}
