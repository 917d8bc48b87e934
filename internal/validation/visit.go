package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// VisitInput describes a visit about to be written. A zero Date means the
// date was missing or could not be parsed; timeslot.Unset does the same for
// either end of Slot.
type VisitInput struct {
	ID      uuid.UUID
	Doctor  *clinic.User
	Patient *clinic.User
	Date    time.Time
	Slot    timeslot.Slot
	Status  clinic.VisitStatus
}

// CheckVisit runs the eligibility, time window, overlap, containment and
// status rules for a visit in that order.
func (v *Validator) CheckVisit(ctx context.Context, in VisitInput) (Result, error) {
	rec := newRecorder(v.mode)

	present, stop := checkParticipants(rec, in.Doctor, in.Patient, true)
	if stop {
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
	if ordered && timeslot.DurationMinutes(in.Slot) > timeslot.MaxVisitMinutes {
		slot := in.Slot
		if rec.add(Violation{Field: FieldForm, Kind: ExceededWorkDayDuration, Interval: &slot}) {
			return rec.result(), nil
		}
	}

	hasDate := !in.Date.IsZero()
	if !hasDate && rec.fail(FieldDate, InvalidTimeFormat) {
		return rec.result(), nil
	}

	if present && hasDate && ordered {
		date := clinic.DateOnly(in.Date)

		conflict, err := v.visitConflict(ctx, in, date)
		if err != nil {
			return Result{}, err
		}
		if conflict != nil && rec.add(*conflict) {
			return rec.result(), nil
		}

		inside, err := v.withinSchedule(ctx, in.Doctor.ID, date, in.Slot)
		if err != nil {
			return Result{}, err
		}
		if !inside && rec.fail(FieldForm, OutsideSchedule) {
			return rec.result(), nil
		}
	}

	if hasDate && in.Slot.Start.Valid() {
		rec.merge(CheckStatusConsistency(in.Date, in.Slot.Start, in.Status, v.now()))
	}

	return rec.result(), nil
}

// visitConflict returns the overlap violation for the doctor's day, if any.
// Any overlap rejects; a visit with the same patient is reported first.
func (v *Validator) visitConflict(ctx context.Context, in VisitInput, date time.Time) (*Violation, error) {
	refs, err := v.visits.FindOverlappingVisits(ctx, in.Doctor.ID, date, in.Slot, in.ID)
	if err != nil {
		return nil, fmt.Errorf("find overlapping visits: %w", err)
	}

	var found *clinic.VisitRef
	for i := range refs {
		ref := &refs[i]
		if ref.ID == in.ID || !timeslot.Overlaps(ref.Slot, in.Slot) {
			continue
		}
		if ref.PatientID == in.Patient.ID {
			found = ref
			break
		}
		if found == nil {
			found = ref
		}
	}
	if found == nil {
		return nil, nil
	}

	slot := found.Slot
	return &Violation{Field: FieldForm, Kind: OverlappingVisit, EntityID: found.ID, Interval: &slot}, nil
}

func (v *Validator) withinSchedule(ctx context.Context, doctorID uuid.UUID, date time.Time, slot timeslot.Slot) (bool, error) {
	schedules, err := v.schedules.FindSchedules(ctx, doctorID, clinic.WeekdayOf(date))
	if err != nil {
		return false, fmt.Errorf("find schedules: %w", err)
	}
	for _, s := range schedules {
		if timeslot.Contains(s.Slot, slot) {
			return true, nil
		}
	}
	return false, nil
}
