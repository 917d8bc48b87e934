// Package validation decides whether schedule, visit and diagnosis writes
// are allowed. It never writes: callers persist only when the returned
// Result is OK.
//
// Checks read the current store state and are not atomic with the write
// that follows them. Two concurrent bookings can both pass; the database
// exclusion constraints reject the second one at insert time.
package validation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type Validator struct {
	schedules clinic.ScheduleStore
	visits    clinic.VisitStore
	mode      Mode
	now       func() time.Time
}

type Option func(*Validator)

func WithMode(m Mode) Option {
	return func(v *Validator) { v.mode = m }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func New(schedules clinic.ScheduleStore, visits clinic.VisitStore, opts ...Option) *Validator {
	v := &Validator{
		schedules: schedules,
		visits:    visits,
		mode:      CollectAll,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Mode() Mode { return v.mode }

// ValidateScheduleWrite checks a schedule create or edit.
func (v *Validator) ValidateScheduleWrite(ctx context.Context, in ScheduleInput) (Result, error) {
	res, err := v.CheckSchedule(ctx, in)
	if err != nil {
		return Result{}, err
	}
	logRejected(ctx, "schedule", in.ID.String(), res)
	return res, nil
}

// ValidateVisitWrite checks a visit create or edit, including the status rule
// against the validator's clock.
func (v *Validator) ValidateVisitWrite(ctx context.Context, in VisitInput) (Result, error) {
	res, err := v.CheckVisit(ctx, in)
	if err != nil {
		return Result{}, err
	}
	logRejected(ctx, "visit", in.ID.String(), res)
	return res, nil
}

func (v *Validator) ValidateDiagnosisWrite(ctx context.Context, in DiagnosisInput) Result {
	res := checkDiagnosis(v.mode, in)
	logRejected(ctx, "diagnosis", "", res)
	return res
}

// ValidateUserWrite checks a new account: identity fields first, then the
// role and specialty rules.
func (v *Validator) ValidateUserWrite(ctx context.Context, in UserInput) Result {
	res := CheckUserIdentity(in.Username, in.Fullname)
	res.Violations = append(res.Violations, CheckUserProfile(in.Role, in.Specialty).Violations...)
	if v.mode == FirstFailure && len(res.Violations) > 1 {
		res.Violations = res.Violations[:1]
	}
	logRejected(ctx, "user", "", res)
	return res
}

func logRejected(ctx context.Context, entity, id string, res Result) {
	if res.OK() {
		return
	}
	codes := make([]string, len(res.Violations))
	for i, vi := range res.Violations {
		codes[i] = vi.Kind.String()
	}
	ev := zerolog.Ctx(ctx).Debug().Str("entity", entity).Strs("violations", codes)
	if id != "" {
		ev = ev.Str("id", id)
	}
	ev.Msg("write rejected")
}
