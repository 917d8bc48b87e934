package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// memStore answers the query collaborators from slices.
type memStore struct {
	schedules []clinic.Schedule
	visits    []clinic.Visit
	err       error
}

func (m *memStore) FindSchedules(_ context.Context, doctorID uuid.UUID, day clinic.Weekday) ([]clinic.Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []clinic.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Day == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) FindOverlappingSchedules(_ context.Context, doctorID uuid.UUID, day clinic.Weekday, slot timeslot.Slot, excludingID uuid.UUID) ([]clinic.Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []clinic.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Day == day && s.ID != excludingID && timeslot.Overlaps(s.Slot, slot) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) FindOverlappingVisits(_ context.Context, doctorID uuid.UUID, date time.Time, slot timeslot.Slot, excludingID uuid.UUID) ([]clinic.VisitRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []clinic.VisitRef
	for _, v := range m.visits {
		if v.DoctorID == doctorID && v.Date.Equal(date) && v.ID != excludingID && timeslot.Overlaps(v.Slot, slot) {
			out = append(out, clinic.VisitRef{ID: v.ID, PatientID: v.PatientID, Slot: v.Slot})
		}
	}
	return out, nil
}

var (
	// monday is a Monday; now sits the Wednesday before it.
	monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now    = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
)

func slot(t *testing.T, start, end string) timeslot.Slot {
	t.Helper()
	s, err := timeslot.Parse(start, end)
	require.NoError(t, err)
	return s
}

func doctor() *clinic.User {
	return &clinic.User{ID: uuid.New(), Username: "drhouse", Role: clinic.RoleDoctor, IsActive: true}
}

func patient() *clinic.User {
	return &clinic.User{ID: uuid.New(), Username: "pat", Role: clinic.RolePatient, IsActive: true}
}

func newValidator(store *memStore, opts ...Option) *Validator {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(store, store, opts...)
}

func workday(t *testing.T, doc *clinic.User, day clinic.Weekday) clinic.Schedule {
	return clinic.Schedule{ID: uuid.New(), DoctorID: doc.ID, Day: day, Slot: slot(t, "09:00", "17:00")}
}

func TestCheckSchedule(t *testing.T) {
	ctx := context.Background()
	doc := doctor()
	existing := workday(t, doc, clinic.Monday)
	store := &memStore{schedules: []clinic.Schedule{existing}}
	v := newValidator(store)

	t.Run("free day passes", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: doc, Day: clinic.Tuesday, Slot: slot(t, "09:00", "17:00")})
		require.NoError(t, err)
		assert.True(t, res.OK())
	})

	t.Run("touching window passes", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: doc, Day: clinic.Monday, Slot: slot(t, "17:00", "19:00")})
		require.NoError(t, err)
		assert.True(t, res.OK())
	})

	t.Run("overlap carries conflicting schedule", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: doc, Day: clinic.Monday, Slot: slot(t, "16:00", "18:00")})
		require.NoError(t, err)
		require.Equal(t, []Kind{ScheduleOverlap}, res.Kinds())
		assert.Equal(t, existing.ID, res.Violations[0].EntityID)
		require.NotNil(t, res.Violations[0].Interval)
		assert.Equal(t, "09:00-17:00", res.Violations[0].Interval.String())
	})

	t.Run("editing itself does not self-conflict", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			res, err := v.CheckSchedule(ctx, ScheduleInput{ID: existing.ID, Doctor: doc, Day: clinic.Monday, Slot: existing.Slot})
			require.NoError(t, err)
			assert.True(t, res.OK())
		}
	})

	t.Run("inactive doctor", func(t *testing.T) {
		inactive := *doc
		inactive.IsActive = false
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: &inactive, Day: clinic.Friday, Slot: slot(t, "09:00", "10:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorInactive}, res.Kinds())
	})

	t.Run("non-doctor owner", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: patient(), Day: clinic.Friday, Slot: slot(t, "09:00", "10:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidUserLevel}, res.Kinds())
	})

	t.Run("bad day of week", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: doc, Day: clinic.Weekday(7), Slot: slot(t, "09:00", "10:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidDayOfWeek}, res.Kinds())
	})

	t.Run("midnight spanning window rejected by ordering", func(t *testing.T) {
		res, err := v.CheckSchedule(ctx, ScheduleInput{Doctor: doc, Day: clinic.Friday, Slot: slot(t, "22:00", "02:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidStartEnd}, res.Kinds())
	})
}

func TestCheckSchedule_Modes(t *testing.T) {
	ctx := context.Background()
	in := ScheduleInput{Day: clinic.Monday, Slot: slot(t, "10:05", "09:00")}

	all, err := newValidator(&memStore{}).CheckSchedule(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []Kind{DoctorRequired, InvalidStartEnd, InvalidTimeIncrement}, all.Kinds())

	first, err := newValidator(&memStore{}, WithMode(FirstFailure)).CheckSchedule(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []Kind{DoctorRequired}, first.Kinds())
}

func TestCheckVisit(t *testing.T) {
	ctx := context.Background()
	doc := doctor()
	pat := patient()
	other := patient()

	booked := clinic.Visit{
		ID:        uuid.New(),
		DoctorID:  doc.ID,
		PatientID: other.ID,
		Date:      monday,
		Slot:      slot(t, "10:00", "11:00"),
		Status:    clinic.VisitActive,
	}
	store := &memStore{
		schedules: []clinic.Schedule{workday(t, doc, clinic.Monday)},
		visits:    []clinic.Visit{booked},
	}
	v := newValidator(store)

	visit := func(start, end string) VisitInput {
		return VisitInput{Doctor: doc, Patient: pat, Date: monday, Slot: slot(t, start, end), Status: clinic.VisitActive}
	}

	t.Run("free slot inside schedule passes", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, visit("11:00", "12:00"))
		require.NoError(t, err)
		assert.True(t, res.OK(), res.Kinds())
	})

	t.Run("overlap with another patient rejects", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, visit("10:30", "11:30"))
		require.NoError(t, err)
		require.Equal(t, []Kind{OverlappingVisit}, res.Kinds())
		assert.Equal(t, booked.ID, res.Violations[0].EntityID)
		assert.Equal(t, "10:00-11:00", res.Violations[0].Interval.String())
	})

	t.Run("overlap with the same patient rejects", func(t *testing.T) {
		in := visit("10:30", "11:30")
		in.Patient = other
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []Kind{OverlappingVisit}, res.Kinds())
	})

	t.Run("other dates do not conflict", func(t *testing.T) {
		in := visit("10:30", "11:30")
		in.Date = monday.AddDate(0, 0, 7)
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.True(t, res.OK(), res.Kinds())
	})

	t.Run("editing a visit in place excludes itself", func(t *testing.T) {
		in := VisitInput{ID: booked.ID, Doctor: doc, Patient: other, Date: monday, Slot: slot(t, "10:15", "11:15"), Status: clinic.VisitActive}
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.True(t, res.OK(), res.Kinds())
	})

	t.Run("outside schedule", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, visit("16:30", "17:30"))
		require.NoError(t, err)
		assert.Equal(t, []Kind{OutsideSchedule}, res.Kinds())
	})

	t.Run("no schedule on that weekday", func(t *testing.T) {
		in := visit("11:00", "12:00")
		in.Date = monday.AddDate(0, 0, 1)
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []Kind{OutsideSchedule}, res.Kinds())
	})

	t.Run("two hours is the cap", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, visit("12:00", "14:00"))
		require.NoError(t, err)
		assert.True(t, res.OK(), res.Kinds())

		res, err = v.CheckVisit(ctx, visit("12:00", "14:01"))
		require.NoError(t, err)
		assert.True(t, res.Has(ExceededWorkDayDuration))
		assert.Equal(t, "12:00-14:01", res.Violations[len(res.Violations)-1].Interval.String())
	})

	t.Run("missing date", func(t *testing.T) {
		in := visit("11:00", "12:00")
		in.Date = time.Time{}
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidTimeFormat}, res.Kinds())
		assert.Equal(t, FieldDate, res.Violations[0].Field)
	})

	t.Run("future visit cannot be visited", func(t *testing.T) {
		in := visit("11:00", "12:00")
		in.Status = clinic.VisitVisited
		res, err := v.CheckVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidVisitStatus}, res.Kinds())
	})
}

func TestCheckVisit_Eligibility(t *testing.T) {
	ctx := context.Background()
	doc := doctor()
	store := &memStore{schedules: []clinic.Schedule{workday(t, doc, clinic.Monday)}}
	v := newValidator(store)

	t.Run("missing participants", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, VisitInput{Doctor: doc, Slot: slot(t, "10:00", "11:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorAndPatientRequired, InvalidTimeFormat}, res.Kinds())
	})

	t.Run("doctor booking themselves", func(t *testing.T) {
		res, err := v.CheckVisit(ctx, VisitInput{Doctor: doc, Patient: doc, Date: monday, Slot: slot(t, "10:00", "11:00"), Status: clinic.VisitActive})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorSelfVisit, InvalidUserLevel}, res.Kinds())
		assert.Equal(t, FieldPatient, res.Violations[1].Field)
	})

	t.Run("inactive doctor and wrong roles", func(t *testing.T) {
		admin := &clinic.User{ID: uuid.New(), Role: clinic.RoleAdmin, IsActive: false}
		res, err := v.CheckVisit(ctx, VisitInput{Doctor: admin, Patient: doctor(), Date: monday, Slot: slot(t, "10:00", "11:00"), Status: clinic.VisitActive})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidUserLevel, InvalidUserLevel, InactiveDoctor, OutsideSchedule}, res.Kinds())
	})

	t.Run("first failure stops early", func(t *testing.T) {
		first := newValidator(store, WithMode(FirstFailure))
		res, err := first.CheckVisit(ctx, VisitInput{Doctor: doc, Patient: doc, Slot: slot(t, "11:00", "10:00")})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorSelfVisit}, res.Kinds())
	})

	t.Run("bad window skips store lookups", func(t *testing.T) {
		failing := newValidator(&memStore{err: errors.New("boom")})
		res, err := failing.CheckVisit(ctx, VisitInput{Doctor: doc, Patient: patient(), Date: monday, Slot: slot(t, "11:00", "10:00"), Status: clinic.VisitActive})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidStartEnd}, res.Kinds())
	})
}

func TestUnreadableClocks(t *testing.T) {
	ctx := context.Background()
	failing := newValidator(&memStore{err: errors.New("boom")})

	t.Run("visit keeps collecting", func(t *testing.T) {
		res, err := failing.CheckVisit(ctx, VisitInput{
			Doctor:  doctor(),
			Patient: patient(),
			Date:    monday,
			Slot:    timeslot.New(timeslot.MustClock(10, 0), timeslot.Unset),
			Status:  clinic.VisitVisited,
		})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidTimeFormat, InvalidVisitStatus}, res.Kinds())
		assert.Equal(t, FieldEnd, res.Violations[0].Field)
	})

	t.Run("visit without a readable start skips the status rule", func(t *testing.T) {
		doc := doctor()
		res, err := failing.CheckVisit(ctx, VisitInput{
			Doctor:  doc,
			Patient: doc,
			Slot:    timeslot.New(timeslot.Unset, timeslot.MustClock(10, 0)),
			Status:  clinic.VisitVisited,
		})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorSelfVisit, InvalidUserLevel, InvalidTimeFormat, InvalidTimeFormat}, res.Kinds())
		assert.Equal(t, FieldStart, res.Violations[2].Field)
		assert.Equal(t, FieldDate, res.Violations[3].Field)
	})

	t.Run("schedule reports every unreadable input", func(t *testing.T) {
		res, err := failing.CheckSchedule(ctx, ScheduleInput{
			Day:  clinic.Weekday(-1),
			Slot: timeslot.New(timeslot.Unset, timeslot.Unset),
		})
		require.NoError(t, err)
		assert.Equal(t, []Kind{DoctorRequired, InvalidDayOfWeek, InvalidTimeFormat, InvalidTimeFormat}, res.Kinds())
		assert.Equal(t, FieldStart, res.Violations[2].Field)
		assert.Equal(t, FieldEnd, res.Violations[3].Field)
	})

	t.Run("first failure stops at the unreadable start", func(t *testing.T) {
		first := newValidator(&memStore{}, WithMode(FirstFailure))
		res, err := first.CheckSchedule(ctx, ScheduleInput{
			Doctor: doctor(),
			Slot:   timeslot.New(timeslot.Unset, timeslot.MustClock(10, 0)),
		})
		require.NoError(t, err)
		assert.Equal(t, []Kind{InvalidTimeFormat}, res.Kinds())
	})
}

func TestCheckVisit_StoreError(t *testing.T) {
	boom := errors.New("boom")
	v := newValidator(&memStore{err: boom})
	_, err := v.CheckVisit(context.Background(), VisitInput{
		Doctor: doctor(), Patient: patient(), Date: monday, Slot: slot(t, "10:00", "11:00"), Status: clinic.VisitActive,
	})
	assert.ErrorIs(t, err, boom)
}

func TestCheckStatusConsistency(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	start := timeslot.MustClock(10, 0)

	cases := []struct {
		name   string
		date   time.Time
		start  timeslot.Clock
		status clinic.VisitStatus
		want   []Kind
	}{
		{"yesterday scheduled", yesterday, start, clinic.VisitScheduled, []Kind{InvalidPastVisitStatus}},
		{"yesterday visited", yesterday, start, clinic.VisitVisited, nil},
		{"tomorrow visited", tomorrow, start, clinic.VisitVisited, []Kind{InvalidVisitStatus}},
		{"tomorrow missed", tomorrow, start, clinic.VisitMissed, []Kind{InvalidVisitStatus}},
		{"tomorrow active", tomorrow, start, clinic.VisitActive, nil},
		{"tomorrow scheduled", tomorrow, start, clinic.VisitScheduled, nil},
		{"yesterday cancelled", yesterday, start, clinic.VisitCancelled, nil},
		{"starting right now is past", now, timeslot.MustClock(9, 0), clinic.VisitScheduled, []Kind{InvalidPastVisitStatus}},
		{"later today is future", now, timeslot.MustClock(9, 15), clinic.VisitMissed, []Kind{InvalidVisitStatus}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := CheckStatusConsistency(tc.date, tc.start, tc.status, now)
			if tc.want == nil {
				assert.True(t, res.OK(), res.Kinds())
				return
			}
			assert.Equal(t, tc.want, res.Kinds())
		})
	}
}

func TestValidateDiagnosisWrite(t *testing.T) {
	ctx := context.Background()
	v := newValidator(&memStore{})
	doc, pat := doctor(), patient()

	res := v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: doc, Patient: pat, Description: "Seasonal allergic rhinitis"})
	assert.True(t, res.OK())

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: doc, Patient: pat, Description: "  flu  "})
	assert.Equal(t, []Kind{ShortDescription}, res.Kinds())

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: doc, Patient: pat})
	assert.Equal(t, []Kind{DescriptionRequired}, res.Kinds())

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: doc, Patient: pat, Description: strings.Repeat("x", MaxDescriptionLength)})
	assert.True(t, res.OK())

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: doc, Patient: pat, Description: strings.Repeat("x", MaxDescriptionLength+1)})
	assert.Equal(t, []Kind{LongDescription}, res.Kinds())

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Doctor: pat, Patient: pat, Description: "Seasonal allergic rhinitis"})
	assert.Equal(t, []Kind{InvalidUserLevel}, res.Kinds())
	assert.Equal(t, FieldDoctor, res.Violations[0].Field)

	res = v.ValidateDiagnosisWrite(ctx, DiagnosisInput{Patient: pat, Description: "x"})
	assert.Equal(t, []Kind{DoctorAndPatientRequired, ShortDescription}, res.Kinds())
}

func TestCheckUserIdentity(t *testing.T) {
	assert.True(t, CheckUserIdentity("jdoe", "John Doe").OK())
	assert.True(t, CheckUserIdentity(" fifteen_chars_x ", strings.Repeat("n", MaxFullnameLength)).OK())
	assert.Equal(t, []Kind{InvalidUsername, InvalidFullname}, CheckUserIdentity("  ", "").Kinds())
	assert.Equal(t, []Kind{InvalidUsername}, CheckUserIdentity("sixteen_chars_xx", "John").Kinds())
	assert.Equal(t, []Kind{InvalidFullname}, CheckUserIdentity("jdoe", strings.Repeat("n", MaxFullnameLength+1)).Kinds())
}

func TestValidateUserWrite(t *testing.T) {
	ctx := context.Background()
	in := UserInput{Username: "sixteen_chars_xx", Fullname: "Dr No", Role: clinic.RoleDoctor}

	all := newValidator(&memStore{}).ValidateUserWrite(ctx, in)
	assert.Equal(t, []Kind{InvalidUsername, RequiredSpecialty}, all.Kinds())

	first := newValidator(&memStore{}, WithMode(FirstFailure)).ValidateUserWrite(ctx, in)
	assert.Equal(t, []Kind{InvalidUsername}, first.Kinds())
}

func TestCheckUserProfile(t *testing.T) {
	assert.True(t, CheckUserProfile(clinic.RoleDoctor, "Cardiology").OK())
	assert.True(t, CheckUserProfile(clinic.RolePatient, "").OK())
	assert.Equal(t, []Kind{RequiredSpecialty}, CheckUserProfile(clinic.RoleDoctor, " ").Kinds())
	assert.Equal(t, []Kind{InvalidSpecialtyLetters}, CheckUserProfile(clinic.RoleDoctor, "ENT 2").Kinds())
	assert.Equal(t, []Kind{InvalidSpecialty}, CheckUserProfile(clinic.RoleAdmin, "Surgery").Kinds())
	assert.Equal(t, []Kind{InvalidUserLevel}, CheckUserProfile(clinic.Role(9), "").Kinds())
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{}.Err())

	res := Result{Violations: []Violation{
		{Field: FieldForm, Kind: OverlappingVisit},
		{Field: FieldStatus, Kind: InvalidVisitStatus},
	}}
	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, OverlappingVisit))
	assert.True(t, errors.Is(err, InvalidVisitStatus))
	assert.False(t, errors.Is(err, OutsideSchedule))
	assert.Equal(t, "validation failed: overlapping_visit, status: invalid_visit_status", err.Error())

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 2)
}

func TestKindCodes(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		code := k.String()
		assert.NotContains(t, code, "kind(")
		assert.False(t, seen[code], code)
		seen[code] = true
	}
	assert.Len(t, Kinds(), len(kindCodes))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("first")
	require.NoError(t, err)
	assert.Equal(t, FirstFailure, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, CollectAll, m)

	_, err = ParseMode("some")
	assert.Error(t, err)
}
