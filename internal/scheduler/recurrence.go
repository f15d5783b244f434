package scheduler

import (
	"time"

	"github.com/forgo/herald/internal/model"
)

// NextFireTime returns the instant a post should fire again after firing at
// last. The base is the scheduled fire time, never the tick that ran it, so
// recurring posts keep their time of day. ok is false for once posts and
// unknown frequencies.
func NextFireTime(last time.Time, freq model.Frequency) (next time.Time, ok bool) {
	last = last.UTC()
	switch freq {
	case model.FrequencyDaily:
		return last.AddDate(0, 0, 1), true
	case model.FrequencyWeekly:
		return last.AddDate(0, 0, 7), true
	default:
		return time.Time{}, false
	}
}
