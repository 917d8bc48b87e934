package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// memRepo is an in-memory clinic.Repository for service tests.
type memRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]clinic.User
	schedules map[uuid.UUID]clinic.Schedule
	visits    map[uuid.UUID]clinic.Visit
	diagnoses map[uuid.UUID]clinic.Diagnosis
	events    []clinic.EventLog

	createVisitErr error
	insertEventErr error
	lastLimit      int
	lastOffset     int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     map[uuid.UUID]clinic.User{},
		schedules: map[uuid.UUID]clinic.Schedule{},
		visits:    map[uuid.UUID]clinic.Visit{},
		diagnoses: map[uuid.UUID]clinic.Diagnosis{},
	}
}

func (m *memRepo) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.EventType
	}
	return out
}

func (m *memRepo) GetUser(_ context.Context, id uuid.UUID) (*clinic.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, clinic.ErrUserNotFound
	}
	return &u, nil
}

func (m *memRepo) CreateUser(_ context.Context, u *clinic.User) (*clinic.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return nil, clinic.ErrDuplicateUser
		}
	}
	c := *u
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.users[c.ID] = c
	return &c, nil
}

func (m *memRepo) ListDoctors(_ context.Context, f clinic.DoctorFilter, limit, offset int) ([]clinic.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit, m.lastOffset = limit, offset

	contains := func(value *string, want string) bool {
		want = strings.TrimSpace(want)
		if want == "" {
			return true
		}
		return value != nil && strings.Contains(strings.ToLower(*value), strings.ToLower(want))
	}

	var out []clinic.User
	for _, u := range m.users {
		if u.Role != clinic.RoleDoctor || !u.IsActive {
			continue
		}
		if !contains(u.Specialty, f.Specialty) || !contains(&u.Fullname, f.Fullname) ||
			!contains(&u.Username, f.Username) || !contains(u.Email, f.Email) || !contains(u.Phone, f.Phone) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fullname < out[j].Fullname })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) FindSchedules(_ context.Context, doctorID uuid.UUID, day clinic.Weekday) ([]clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Day == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) FindOverlappingSchedules(_ context.Context, doctorID uuid.UUID, day clinic.Weekday, slot timeslot.Slot, excludingID uuid.UUID) ([]clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Day == day && s.ID != excludingID && timeslot.Overlaps(s.Slot, slot) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) FindOverlappingVisits(_ context.Context, doctorID uuid.UUID, date time.Time, slot timeslot.Slot, excludingID uuid.UUID) ([]clinic.VisitRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.VisitRef
	for _, v := range m.visits {
		if v.DoctorID == doctorID && v.Date.Equal(date) && v.ID != excludingID && timeslot.Overlaps(v.Slot, slot) {
			out = append(out, clinic.VisitRef{ID: v.ID, PatientID: v.PatientID, Slot: v.Slot})
		}
	}
	return out, nil
}

func (m *memRepo) GetSchedule(_ context.Context, id uuid.UUID) (*clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, clinic.ErrScheduleNotFound
	}
	return &s, nil
}

func (m *memRepo) ListSchedulesByDoctor(_ context.Context, doctorID uuid.UUID) ([]clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Slot.Start < out[j].Slot.Start
	})
	return out, nil
}

func (m *memRepo) CreateSchedule(_ context.Context, s *clinic.Schedule) (*clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	c.ID = uuid.New()
	m.schedules[c.ID] = c
	return &c, nil
}

func (m *memRepo) UpdateSchedule(_ context.Context, s *clinic.Schedule) (*clinic.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return nil, clinic.ErrScheduleNotFound
	}
	m.schedules[s.ID] = *s
	c := *s
	return &c, nil
}

func (m *memRepo) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return clinic.ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *memRepo) GetVisit(_ context.Context, id uuid.UUID) (*clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, clinic.ErrVisitNotFound
	}
	return &v, nil
}

func (m *memRepo) ListVisitsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit, m.lastOffset = limit, offset
	var out []clinic.Visit
	for _, v := range m.visits {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memRepo) ListVisitsByDoctorFrom(_ context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	var out []clinic.Visit
	for _, v := range m.visits {
		if v.DoctorID == doctorID && !v.Date.Before(from) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memRepo) CreateVisit(_ context.Context, v *clinic.Visit) (*clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createVisitErr != nil {
		return nil, m.createVisitErr
	}
	c := *v
	c.ID = uuid.New()
	m.visits[c.ID] = c
	return &c, nil
}

func (m *memRepo) UpdateVisit(_ context.Context, v *clinic.Visit) (*clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[v.ID]; !ok {
		return nil, clinic.ErrVisitNotFound
	}
	m.visits[v.ID] = *v
	c := *v
	return &c, nil
}

func (m *memRepo) DeleteVisit(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[id]; !ok {
		return clinic.ErrVisitNotFound
	}
	delete(m.visits, id)
	return nil
}

func (m *memRepo) FindStaleScheduled(_ context.Context, now time.Time) ([]clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Visit
	for _, v := range m.visits {
		start := v.Date.Add(time.Duration(v.Slot.Start) * time.Minute)
		if v.Status == clinic.VisitScheduled && !start.After(now) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateVisitStatus(_ context.Context, id uuid.UUID, from, to clinic.VisitStatus) (*clinic.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok || v.Status != from {
		return nil, clinic.ErrVisitNotFound
	}
	v.Status = to
	m.visits[id] = v
	return &v, nil
}

func (m *memRepo) GetDiagnosis(_ context.Context, id uuid.UUID) (*clinic.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagnoses[id]
	if !ok {
		return nil, clinic.ErrDiagnosisNotFound
	}
	return &d, nil
}

func (m *memRepo) ListDiagnosesByPatient(_ context.Context, patientID uuid.UUID) ([]clinic.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []clinic.Diagnosis
	for _, d := range m.diagnoses {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) CreateDiagnosis(_ context.Context, d *clinic.Diagnosis) (*clinic.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *d
	c.ID = uuid.New()
	m.diagnoses[c.ID] = c
	return &c, nil
}

func (m *memRepo) SetDiagnosisActive(_ context.Context, id uuid.UUID, active bool) (*clinic.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagnoses[id]
	if !ok {
		return nil, clinic.ErrDiagnosisNotFound
	}
	d.IsActive = active
	m.diagnoses[id] = d
	return &d, nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev clinic.EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertEventErr != nil {
		return m.insertEventErr
	}
	m.events = append(m.events, ev)
	return nil
}
