package dates

import "time"

// WeekRange bounds an ISO week in UTC.
type WeekRange struct {
	Start time.Time `json:"start" db:"week_start"`
	End   time.Time `json:"end" db:"week_end"`
}

// IsoWeekRange returns the Monday 00:00:00.000 UTC start and Sunday
// 23:59:59.999 UTC end of the ISO week containing t. A Sunday belongs to
// the week that started on the preceding Monday.
func IsoWeekRange(t time.Time) WeekRange {
	day := t.UTC()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	diffToMonday := int(time.Monday - midnight.Weekday())
	if midnight.Weekday() == time.Sunday {
		diffToMonday = -6
	}

	monday := midnight.AddDate(0, 0, diffToMonday)
	sunday := monday.AddDate(0, 0, 6).
		Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)

	return WeekRange{Start: monday, End: sunday}
}

// Contains reports whether t falls inside the range, bounds inclusive.
func (r WeekRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
