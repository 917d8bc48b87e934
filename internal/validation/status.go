package validation

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// CheckStatusConsistency rejects a completed or missed status on a future
// visit and a scheduled status on a visit that has already started. The
// visit start is placed in now's location.
func CheckStatusConsistency(date time.Time, start timeslot.Clock, status clinic.VisitStatus, now time.Time) Result {
	y, m, d := date.Date()
	at := time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, now.Location())

	var res Result
	if at.After(now) {
		if status == clinic.VisitMissed || status == clinic.VisitVisited {
			res.Violations = append(res.Violations, Violation{Field: FieldStatus, Kind: InvalidVisitStatus})
		}
		return res
	}
	if status == clinic.VisitScheduled {
		res.Violations = append(res.Violations, Violation{Field: FieldStatus, Kind: InvalidPastVisitStatus})
	}
	return res
}
