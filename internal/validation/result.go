package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// Field names used in violations. FieldForm marks a violation that belongs to
// the record as a whole rather than to one input.
const (
	FieldForm        = ""
	FieldDoctor      = "doctor"
	FieldPatient     = "patient"
	FieldDate        = "date"
	FieldStart       = "start"
	FieldEnd         = "end"
	FieldDayOfWeek   = "day_of_week"
	FieldStatus      = "status"
	FieldDescription = "description"
	FieldRole        = "role"
	FieldSpecialty   = "specialty"
	FieldUsername    = "username"
	FieldFullname    = "fullname"
)

type Violation struct {
	Field string
	Kind  Kind

	// EntityID is the conflicting record for overlap kinds.
	EntityID uuid.UUID
	// Interval is the conflicting or offending time window, when one applies.
	Interval *timeslot.Slot
}

// Result is the ordered outcome of one validation call.
type Result struct {
	Violations []Violation
}

func (r Result) OK() bool { return len(r.Violations) == 0 }

func (r Result) Has(k Kind) bool {
	for _, v := range r.Violations {
		if v.Kind == k {
			return true
		}
	}
	return false
}

// Kinds returns the violated kinds in the order they were found.
func (r Result) Kinds() []Kind {
	out := make([]Kind, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Kind
	}
	return out
}

// Err returns nil for a passing result and *Error otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Violations: r.Violations}
}

// Error carries the violations of a rejected write.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Field != FieldForm {
			codes[i] = v.Field + ": " + v.Kind.String()
		} else {
			codes[i] = v.Kind.String()
		}
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(codes, ", "))
}

// Is matches any Kind carried by the error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok {
		return false
	}
	for _, v := range e.Violations {
		if v.Kind == k {
			return true
		}
	}
	return false
}

// Mode selects whether checks run to completion or stop at the first violation.
type Mode int

const (
	CollectAll Mode = iota
	FirstFailure
)

func (m Mode) String() string {
	if m == FirstFailure {
		return "first"
	}
	return "all"
}

// ParseMode accepts "all" and "first".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return CollectAll, nil
	case "first":
		return FirstFailure, nil
	}
	return CollectAll, fmt.Errorf("unknown validation mode %q", s)
}

type recorder struct {
	mode Mode
	res  Result
}

func newRecorder(mode Mode) *recorder {
	return &recorder{mode: mode}
}

// add records v and reports whether checking should stop.
func (r *recorder) add(v Violation) bool {
	r.res.Violations = append(r.res.Violations, v)
	return r.stopped()
}

func (r *recorder) fail(field string, k Kind) bool {
	return r.add(Violation{Field: field, Kind: k})
}

func (r *recorder) merge(other Result) bool {
	for _, v := range other.Violations {
		if r.add(v) {
			return true
		}
	}
	return r.stopped()
}

func (r *recorder) stopped() bool {
	return r.mode == FirstFailure && len(r.res.Violations) > 0
}

func (r *recorder) result() Result { return r.res }
