package validation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// ScheduleInput describes a schedule about to be written. ID is the record
// being edited, or uuid.Nil for a new one.
type ScheduleInput struct {
	ID     uuid.UUID
	Doctor *clinic.User
	Day    clinic.Weekday
	Slot   timeslot.Slot
}

// CheckSchedule decides whether a weekly availability window can be saved.
// The only error it returns comes from the schedule store.
func (v *Validator) CheckSchedule(ctx context.Context, in ScheduleInput) (Result, error) {
	rec := newRecorder(v.mode)

	if in.Doctor == nil {
		if rec.fail(FieldDoctor, DoctorRequired) {
			return rec.result(), nil
		}
	} else {
		if !in.Doctor.IsActive && rec.fail(FieldDoctor, DoctorInactive) {
			return rec.result(), nil
		}
		if in.Doctor.Role != clinic.RoleDoctor && rec.fail(FieldDoctor, InvalidUserLevel) {
			return rec.result(), nil
		}
	}

	if !in.Day.Valid() && rec.fail(FieldDayOfWeek, InvalidDayOfWeek) {
		return rec.result(), nil
	}

	readable, stop := checkClocks(rec, in.Slot)
	if stop {
		return rec.result(), nil
	}

	ordered := readable && timeslot.ValidateOrdering(in.Slot) == nil
	if readable && !ordered && rec.fail(FieldEnd, InvalidStartEnd) {
		return rec.result(), nil
	}
	if readable && timeslot.ValidateQuantized(in.Slot) != nil && rec.fail(FieldForm, InvalidTimeIncrement) {
		return rec.result(), nil
	}

	if in.Doctor == nil || !in.Day.Valid() || !ordered {
		return rec.result(), nil
	}

	candidates, err := v.schedules.FindOverlappingSchedules(ctx, in.Doctor.ID, in.Day, in.Slot, in.ID)
	if err != nil {
		return Result{}, fmt.Errorf("find overlapping schedules: %w", err)
	}
	for _, s := range candidates {
		if s.ID == in.ID || !timeslot.Overlaps(s.Slot, in.Slot) {
			continue
		}
		slot := s.Slot
		rec.add(Violation{Field: FieldForm, Kind: ScheduleOverlap, EntityID: s.ID, Interval: &slot})
		break
	}

	return rec.result(), nil
}
