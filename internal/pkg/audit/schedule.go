package audit

import "time"

const (
	MinPeriod        = 1
	MaxPeriodHours   = 24
	MaxPeriodMinutes = 60
)

// MaxPeriod returns the upper bound of the period for the mode
func MaxPeriod(testMode bool) int {
	if testMode {
		return MaxPeriodMinutes
	}
	return MaxPeriodHours
}

// ValidPeriod reports whether period is accepted for the mode
func ValidPeriod(period int, testMode bool) bool {
	return period >= MinPeriod && period <= MaxPeriod(testMode)
}

// Offsets returns the evenly spaced fire offsets 0, period, 2*period... below max
func Offsets(period, max int) []int {
	if period < 1 {
		return nil
	}
	offsets := make([]int, 0, max/period+1)
	for i := 0; i < max; i += period {
		offsets = append(offsets, i)
	}
	return offsets
}

// NextFire returns the first wall clock instant strictly after now matching one of the
// offsets: hours of the day at minute zero, or minutes of the hour at second zero in test mode
func NextFire(now time.Time, offsets []int, testMode bool) time.Time {
	if len(offsets) == 0 {
		return time.Time{}
	}
	y, mo, d := now.Date()
	loc := now.Location()

	if testMode {
		hour := time.Date(y, mo, d, now.Hour(), 0, 0, 0, loc)
		for _, h := range []time.Time{hour, hour.Add(time.Hour)} {
			for _, m := range offsets {
				if t := h.Add(time.Duration(m) * time.Minute); t.After(now) {
					return t
				}
			}
		}
		return hour.Add(2 * time.Hour)
	}

	for day := 0; day < 2; day++ {
		for _, h := range offsets {
			if t := time.Date(y, mo, d+day, h, 0, 0, 0, loc); t.After(now) {
				return t
			}
		}
	}
	return time.Date(y, mo, d+2, offsets[0], 0, 0, 0, loc)
}
