package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

const (
	EventUserRegistered   = "USER_REGISTERED"
	EventScheduleCreated  = "SCHEDULE_CREATED"
	EventScheduleUpdated  = "SCHEDULE_UPDATED"
	EventScheduleDeleted  = "SCHEDULE_DELETED"
	EventVisitBooked      = "VISIT_BOOKED"
	EventVisitUpdated     = "VISIT_UPDATED"
	EventVisitStatus      = "VISIT_STATUS_CHANGED"
	EventVisitDeleted     = "VISIT_DELETED"
	EventVisitMissed      = "VISIT_MISSED"
	EventDiagnosisCreated = "DIAGNOSIS_CREATED"
	EventDiagnosisToggled = "DIAGNOSIS_TOGGLED"
)

var (
	ErrCalendarBusy            = errors.New("calendar is being changed, please retry")
	ErrForbidden               = errors.New("only the authoring doctor can change this diagnosis")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type ScheduleRequest struct {
	DoctorID uuid.UUID
	Day      clinic.Weekday
	Slot     timeslot.Slot
}

// VisitRequest is a full visit write. An empty Status means active on
// booking and unchanged on update. A zero Date is reported as a bad date.
type VisitRequest struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Date        time.Time
	Slot        timeslot.Slot
	Status      clinic.VisitStatus
	Description string
}

type DiagnosisRequest struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Description string
}

type UserRequest struct {
	Username  string
	Fullname  string
	Email     *string
	Phone     *string
	Role      clinic.Role
	Specialty string
}

type Service struct {
	repo      clinic.Repository
	validator *validation.Validator
	locker    redisclient.Locker
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo clinic.Repository, validator *validation.Validator, locker redisclient.Locker, opts ...Option) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	s := &Service{
		repo:      repo,
		validator: validator,
		locker:    locker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users

func (s *Service) RegisterUser(ctx context.Context, req UserRequest) (*clinic.User, error) {
	specialty := strings.TrimSpace(req.Specialty)
	res := s.validator.ValidateUserWrite(ctx, validation.UserInput{
		Username:  req.Username,
		Fullname:  req.Fullname,
		Role:      req.Role,
		Specialty: specialty,
	})
	if err := res.Err(); err != nil {
		return nil, err
	}

	u := &clinic.User{
		Username: strings.TrimSpace(req.Username),
		Fullname: strings.TrimSpace(req.Fullname),
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		IsActive: true,
	}
	if specialty != "" {
		u.Specialty = &specialty
	}

	created, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, clinic.ErrDuplicateUser) || errors.Is(err, clinic.ErrValueTooLong) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logEvent(ctx, "user", created.ID, EventUserRegistered, map[string]any{
		"role": created.Role.String(),
	})
	return created, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*clinic.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SearchDoctors lists active doctors matching the filter, as a patient
// would before picking a schedule to book against.
func (s *Service) SearchDoctors(ctx context.Context, f clinic.DoctorFilter, limit, offset int) ([]clinic.User, error) {
	limit, offset = clampPage(limit, offset)

	doctors, err := s.repo.ListDoctors(ctx, f, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// loadUser returns nil for an unknown or unset id so the validator reports
// the missing participant.
func (s *Service) loadUser(ctx context.Context, id uuid.UUID) (*clinic.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, clinic.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return u, nil
}

// Schedules

func (s *Service) CreateSchedule(ctx context.Context, req ScheduleRequest) (*clinic.Schedule, error) {
	saved, err := s.saveSchedule(ctx, uuid.Nil, req)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "schedule", saved.ID, EventScheduleCreated, schedulePayload(saved))
	return saved, nil
}

// UpdateSchedule edits a schedule in place. The schedule never conflicts
// with its own previous window.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*clinic.Schedule, error) {
	if _, err := s.repo.GetSchedule(ctx, id); err != nil {
		if errors.Is(err, clinic.ErrScheduleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	saved, err := s.saveSchedule(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "schedule", saved.ID, EventScheduleUpdated, schedulePayload(saved))
	return saved, nil
}

func (s *Service) saveSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*clinic.Schedule, error) {
	doctor, err := s.loadUser(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	var saved *clinic.Schedule

	err = s.locker.WithLock(ctx, redisclient.ScheduleDayKey(req.DoctorID, int(req.Day)), func(lockCtx context.Context) error {
		res, err := s.validator.ValidateScheduleWrite(lockCtx, validation.ScheduleInput{
			ID:     id,
			Doctor: doctor,
			Day:    req.Day,
			Slot:   req.Slot,
		})
		if err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}

		sched := &clinic.Schedule{ID: id, DoctorID: req.DoctorID, Day: req.Day, Slot: req.Slot}
		if id == uuid.Nil {
			saved, err = s.repo.CreateSchedule(lockCtx, sched)
		} else {
			saved, err = s.repo.UpdateSchedule(lockCtx, sched)
		}
		if err != nil {
			if errors.Is(err, clinic.ErrSlotConflict) {
				return conflict(validation.ScheduleOverlap)
			}
			if errors.Is(err, clinic.ErrScheduleNotFound) {
				return err
			}
			return fmt.Errorf("save schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, lockError(err)
	}

	return saved, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSchedule(ctx, id); err != nil {
		if errors.Is(err, clinic.ErrScheduleNotFound) {
			return err
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.logEvent(ctx, "schedule", id, EventScheduleDeleted, map[string]any{})
	return nil
}

func (s *Service) ListDoctorSchedules(ctx context.Context, doctorID uuid.UUID) ([]clinic.Schedule, error) {
	schedules, err := s.repo.ListSchedulesByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// Visits

// BookVisit validates and stores a new visit. The doctor's calendar for that
// date is locked while the check and the insert run.
func (s *Service) BookVisit(ctx context.Context, req VisitRequest) (*clinic.Visit, error) {
	if req.Status == "" {
		req.Status = clinic.VisitActive
	}

	saved, err := s.saveVisit(ctx, uuid.Nil, req)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "visit", saved.ID, EventVisitBooked, visitPayload(saved))
	return saved, nil
}

// UpdateVisit rewrites an existing visit in place.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, req VisitRequest) (*clinic.Visit, error) {
	existing, err := s.repo.GetVisit(ctx, id)
	if err != nil {
		if errors.Is(err, clinic.ErrVisitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if existing.Status == clinic.VisitCancelled && req.Status != clinic.VisitCancelled {
		return nil, ErrInvalidStatusTransition
	}

	saved, err := s.saveVisit(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "visit", saved.ID, EventVisitUpdated, visitPayload(saved))
	return saved, nil
}

// CheckVisit runs the visit rules without writing anything.
func (s *Service) CheckVisit(ctx context.Context, id uuid.UUID, req VisitRequest) (validation.Result, error) {
	if req.Status == "" {
		req.Status = clinic.VisitActive
	}
	in, err := s.visitInput(ctx, id, req)
	if err != nil {
		return validation.Result{}, err
	}
	return s.validator.ValidateVisitWrite(ctx, in)
}

func (s *Service) visitInput(ctx context.Context, id uuid.UUID, req VisitRequest) (validation.VisitInput, error) {
	doctor, err := s.loadUser(ctx, req.DoctorID)
	if err != nil {
		return validation.VisitInput{}, err
	}
	patient, err := s.loadUser(ctx, req.PatientID)
	if err != nil {
		return validation.VisitInput{}, err
	}

	date := req.Date
	if !date.IsZero() {
		date = clinic.DateOnly(date)
	}

	return validation.VisitInput{
		ID:      id,
		Doctor:  doctor,
		Patient: patient,
		Date:    date,
		Slot:    req.Slot,
		Status:  req.Status,
	}, nil
}

func (s *Service) saveVisit(ctx context.Context, id uuid.UUID, req VisitRequest) (*clinic.Visit, error) {
	in, err := s.visitInput(ctx, id, req)
	if err != nil {
		return nil, err
	}

	var saved *clinic.Visit

	err = s.locker.WithLock(ctx, redisclient.VisitDayKey(req.DoctorID, in.Date), func(lockCtx context.Context) error {
		res, err := s.validator.ValidateVisitWrite(lockCtx, in)
		if err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}

		v := &clinic.Visit{
			ID:          id,
			DoctorID:    req.DoctorID,
			PatientID:   req.PatientID,
			Date:        in.Date,
			Slot:        req.Slot,
			Status:      req.Status,
			Description: strings.TrimSpace(req.Description),
		}
		if id == uuid.Nil {
			saved, err = s.repo.CreateVisit(lockCtx, v)
		} else {
			saved, err = s.repo.UpdateVisit(lockCtx, v)
		}
		if err != nil {
			if errors.Is(err, clinic.ErrSlotConflict) {
				return conflict(validation.OverlappingVisit)
			}
			if errors.Is(err, clinic.ErrVisitNotFound) {
				return err
			}
			return fmt.Errorf("save visit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, lockError(err)
	}

	return saved, nil
}

// ChangeVisitStatus moves a visit to a new status. The new status must agree
// with the visit's time: only started visits can be visited or missed.
func (s *Service) ChangeVisitStatus(ctx context.Context, id uuid.UUID, to clinic.VisitStatus) (*clinic.Visit, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatusTransition
	}

	v, err := s.repo.GetVisit(ctx, id)
	if err != nil {
		if errors.Is(err, clinic.ErrVisitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}
	if v.Status == to {
		return v, nil
	}
	if v.Status == clinic.VisitCancelled {
		return nil, ErrInvalidStatusTransition
	}

	if err := validation.CheckStatusConsistency(v.Date, v.Slot.Start, to, s.now()).Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateVisitStatus(ctx, id, v.Status, to)
	if err != nil {
		if errors.Is(err, clinic.ErrVisitNotFound) {
			// status changed underneath us
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update visit status: %w", err)
	}

	s.logEvent(ctx, "visit", id, EventVisitStatus, map[string]any{
		"from": string(v.Status),
		"to":   string(to),
	})
	return updated, nil
}

func (s *Service) CancelVisit(ctx context.Context, id uuid.UUID) (*clinic.Visit, error) {
	return s.ChangeVisitStatus(ctx, id, clinic.VisitCancelled)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteVisit(ctx, id); err != nil {
		if errors.Is(err, clinic.ErrVisitNotFound) {
			return err
		}
		return fmt.Errorf("delete visit: %w", err)
	}
	s.logEvent(ctx, "visit", id, EventVisitDeleted, map[string]any{})
	return nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*clinic.Visit, error) {
	v, err := s.repo.GetVisit(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

// ListVisitsByPatient pages through a patient's visits, newest first.
func (s *Service) ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinic.Visit, error) {
	limit, offset = clampPage(limit, offset)

	visits, err := s.repo.ListVisitsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list visits by patient: %w", err)
	}
	return visits, nil
}

// ListUpcomingVisitsByDoctor returns the doctor's visits from today on.
func (s *Service) ListUpcomingVisitsByDoctor(ctx context.Context, doctorID uuid.UUID, limit int) ([]clinic.Visit, error) {
	limit, _ = clampPage(limit, 0)

	visits, err := s.repo.ListVisitsByDoctorFrom(ctx, doctorID, clinic.DateOnly(s.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming visits: %w", err)
	}
	return visits, nil
}

// MarkMissedVisits is intended to be called by the worker periodically. It
// moves scheduled visits whose start has passed to missed and returns how
// many were changed.
func (s *Service) MarkMissedVisits(ctx context.Context) (int, error) {
	stale, err := s.repo.FindStaleScheduled(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find stale scheduled visits: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	marked := 0
	for _, v := range stale {
		_, err := s.repo.UpdateVisitStatus(ctx, v.ID, clinic.VisitScheduled, clinic.VisitMissed)
		if err != nil {
			if !errors.Is(err, clinic.ErrVisitNotFound) {
				logger.Error().Err(err).Str("visit_id", v.ID.String()).Msg("failed to mark visit missed")
			}
			continue
		}
		marked++
		s.logEvent(ctx, "visit", v.ID, EventVisitMissed, map[string]any{
			"reason": "worker",
		})
	}

	return marked, nil
}

// Diagnoses

func (s *Service) CreateDiagnosis(ctx context.Context, req DiagnosisRequest) (*clinic.Diagnosis, error) {
	doctor, err := s.loadUser(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.loadUser(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	res := s.validator.ValidateDiagnosisWrite(ctx, validation.DiagnosisInput{
		Doctor:      doctor,
		Patient:     patient,
		Description: req.Description,
	})
	if err := res.Err(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateDiagnosis(ctx, &clinic.Diagnosis{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create diagnosis: %w", err)
	}

	s.logEvent(ctx, "diagnosis", created.ID, EventDiagnosisCreated, map[string]any{
		"patient_id": created.PatientID.String(),
		"doctor_id":  created.DoctorID.String(),
	})
	return created, nil
}

// ToggleDiagnosis flips is_active. Only the doctor who wrote the diagnosis
// may do this.
func (s *Service) ToggleDiagnosis(ctx context.Context, id, requesterID uuid.UUID) (*clinic.Diagnosis, error) {
	d, err := s.repo.GetDiagnosis(ctx, id)
	if err != nil {
		if errors.Is(err, clinic.ErrDiagnosisNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load diagnosis: %w", err)
	}
	if d.DoctorID != requesterID {
		return nil, ErrForbidden
	}

	updated, err := s.repo.SetDiagnosisActive(ctx, id, !d.IsActive)
	if err != nil {
		return nil, fmt.Errorf("toggle diagnosis: %w", err)
	}

	s.logEvent(ctx, "diagnosis", id, EventDiagnosisToggled, map[string]any{
		"is_active": updated.IsActive,
	})
	return updated, nil
}

func (s *Service) ListDiagnosesByPatient(ctx context.Context, patientID uuid.UUID) ([]clinic.Diagnosis, error) {
	out, err := s.repo.ListDiagnosesByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return out, nil
}

func (s *Service) logEvent(ctx context.Context, entityType string, entityID uuid.UUID, eventType string, payload map[string]any) {
	logger := zerolog.Ctx(ctx)

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	id := entityID
	ev := clinic.EventLog{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   &id,
		Payload:    data,
		CreatedAt:  s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		logger.Error().Err(err).
			Str("event", eventType).
			Str("entity_id", entityID.String()).
			Msg("failed to insert event log")
		return
	}
	logger.Info().Str("event", eventType).Str("entity_id", entityID.String()).Msg("write persisted")
}

func schedulePayload(s *clinic.Schedule) map[string]any {
	return map[string]any{
		"doctor_id":   s.DoctorID.String(),
		"day_of_week": int(s.Day),
		"slot":        s.Slot.String(),
	}
}

func visitPayload(v *clinic.Visit) map[string]any {
	return map[string]any{
		"doctor_id":  v.DoctorID.String(),
		"patient_id": v.PatientID.String(),
		"date":       v.Date.Format(time.DateOnly),
		"slot":       v.Slot.String(),
		"status":     string(v.Status),
	}
}

// conflict reports a write the database rejected after validation passed.
func conflict(k validation.Kind) error {
	return validation.Result{Violations: []validation.Violation{{Field: validation.FieldForm, Kind: k}}}.Err()
}

func lockError(err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrCalendarBusy
	}
	return err
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
