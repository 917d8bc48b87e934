package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrVisitNotFound     = errors.New("visit not found")
	ErrDiagnosisNotFound = errors.New("diagnosis not found")

	// ErrSlotConflict is returned when the database rejects a write that
	// overlaps an existing row. It backs up the validation overlap checks.
	ErrSlotConflict  = errors.New("slot conflicts with an existing record")
	ErrDuplicateUser = errors.New("username already taken")
	ErrValueTooLong  = errors.New("value too long for column")
)

// DoctorFilter narrows a doctor search. Every non-empty field must appear,
// case-insensitively, somewhere in the matching column.
type DoctorFilter struct {
	Specialty string
	Fullname  string
	Username  string
	Email     string
	Phone     string
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

type ScheduleStore interface {
	FindSchedules(ctx context.Context, doctorID uuid.UUID, day Weekday) ([]Schedule, error)
	FindOverlappingSchedules(ctx context.Context, doctorID uuid.UUID, day Weekday, slot timeslot.Slot, excludingID uuid.UUID) ([]Schedule, error)
}

type VisitStore interface {
	FindOverlappingVisits(ctx context.Context, doctorID uuid.UUID, date time.Time, slot timeslot.Slot, excludingID uuid.UUID) ([]VisitRef, error)
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	UserStore
	ScheduleStore
	VisitStore

	CreateUser(ctx context.Context, u *User) (*User, error)
	ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]User, error)

	GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListSchedulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error)
	CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error)
	UpdateSchedule(ctx context.Context, s *Schedule) (*Schedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error

	GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Visit, error)
	ListVisitsByDoctorFrom(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]Visit, error)
	CreateVisit(ctx context.Context, v *Visit) (*Visit, error)
	UpdateVisit(ctx context.Context, v *Visit) (*Visit, error)
	DeleteVisit(ctx context.Context, id uuid.UUID) error

	// Status sweep
	FindStaleScheduled(ctx context.Context, now time.Time) ([]Visit, error)
	UpdateVisitStatus(ctx context.Context, id uuid.UUID, from, to VisitStatus) (*Visit, error)

	GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	ListDiagnosesByPatient(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error)
	CreateDiagnosis(ctx context.Context, d *Diagnosis) (*Diagnosis, error)
	SetDiagnosisActive(ctx context.Context, id uuid.UUID, active bool) (*Diagnosis, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
