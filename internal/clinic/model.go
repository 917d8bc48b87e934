package clinic

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

type Role int

const (
	RolePatient Role = iota
	RoleDoctor
	RoleAdmin
	RoleSuperuser
)

func (r Role) Valid() bool { return r >= RolePatient && r <= RoleSuperuser }

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "patient"
	case RoleDoctor:
		return "doctor"
	case RoleAdmin:
		return "admin"
	case RoleSuperuser:
		return "superuser"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps the lower-case role name used in URLs and payloads.
func ParseRole(s string) (Role, bool) {
	for r := RolePatient; r <= RoleSuperuser; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitActive    VisitStatus = "active"
	VisitVisited   VisitStatus = "visited"
	VisitMissed    VisitStatus = "missed"
	VisitCancelled VisitStatus = "cancelled"
)

func (s VisitStatus) Valid() bool {
	switch s {
	case VisitScheduled, VisitActive, VisitVisited, VisitMissed, VisitCancelled:
		return true
	}
	return false
}

// Weekday numbers days Monday=0 through Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return time.Weekday((int(d) + 1) % 7).String()
}

// WeekdayOf converts a calendar date to the Monday-first numbering.
func WeekdayOf(date time.Time) Weekday {
	return Weekday((int(date.Weekday()) + 6) % 7)
}

type User struct {
	ID        uuid.UUID
	Username  string
	Fullname  string
	Email     *string
	Phone     *string
	Role      Role
	Specialty *string
	IsActive  bool
	CreatedAt time.Time
}

type Schedule struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Day       Weekday
	Slot      timeslot.Slot
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Visit struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Date        time.Time
	Slot        timeslot.Slot
	Status      VisitStatus
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VisitRef is the projection returned by overlap lookups.
type VisitRef struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Slot      timeslot.Slot
}

type Diagnosis struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

type EventLog struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   *uuid.UUID
	Payload    []byte
	CreatedAt  time.Time
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
