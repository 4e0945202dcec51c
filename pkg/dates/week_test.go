package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsoWeekRangeMidweek(t *testing.T) {
	// Wednesday 2024-05-15
	wednesday := time.Date(2024, 5, 15, 13, 45, 12, 0, time.UTC)
	r := IsoWeekRange(wednesday)

	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Monday, r.Start.Weekday())
	assert.Equal(t, time.Date(2024, 5, 19, 23, 59, 59, 999000000, time.UTC), r.End)
	assert.Equal(t, time.Sunday, r.End.Weekday())
}

func TestIsoWeekRangeSundayBelongsToPreviousMonday(t *testing.T) {
	// Sunday 2024-05-19 must map back to Monday 2024-05-13, not forward.
	sunday := time.Date(2024, 5, 19, 8, 0, 0, 0, time.UTC)
	r := IsoWeekRange(sunday)

	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 5, 19, 23, 59, 59, 999000000, time.UTC), r.End)
}

func TestIsoWeekRangeMonday(t *testing.T) {
	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	r := IsoWeekRange(monday)

	assert.Equal(t, monday, r.Start)
}

func TestWeekRangeContains(t *testing.T) {
	r := IsoWeekRange(time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))

	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.Start.Add(-time.Millisecond)))
	assert.False(t, r.Contains(r.End.Add(time.Millisecond)))
}
