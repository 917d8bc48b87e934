package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgStringTooLong      = "22001"

	usernameConstraint = "users_username_key"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool DB
}

func NewPgRepository(pool DB) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role int

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Fullname,
		&u.Email,
		&u.Phone,
		&role,
		&u.Specialty,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Role = Role(role)
	return &u, nil
}

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	var day, start, end int

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&day,
		&start,
		&end,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	s.Day = Weekday(day)
	s.Slot = timeslot.New(timeslot.Clock(start), timeslot.Clock(end))
	return &s, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var start, end int

	err := row.Scan(
		&v.ID,
		&v.DoctorID,
		&v.PatientID,
		&v.Date,
		&start,
		&end,
		&v.Status,
		&v.Description,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}

	v.Slot = timeslot.New(timeslot.Clock(start), timeslot.Clock(end))
	return &v, nil
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.Description,
		&d.IsActive,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiagnosisNotFound
		}
		return nil, err
	}

	return &d, nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w: %s", ErrSlotConflict, pgErr.ConstraintName)
		case pgUniqueViolation:
			if pgErr.ConstraintName == usernameConstraint {
				return ErrDuplicateUser
			}
		case pgStringTooLong:
			return ErrValueTooLong
		}
	}
	return err
}

const (
	userColumns      = `id, username, fullname, email, phone, role, specialty, is_active, created_at`
	scheduleColumns  = `id, doctor_id, day_of_week, start_minute, end_minute, created_at, updated_at`
	visitColumns     = `id, doctor_id, patient_id, visit_date, start_minute, end_minute, status, description, created_at, updated_at`
	diagnosisColumns = `id, patient_id, doctor_id, description, is_active, created_at`
)

// Users

func (r *PgRepository) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) CreateUser(ctx context.Context, u *User) (*User, error) {
	id := u.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, fullname, email, phone, role, specialty, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+userColumns,
		id, u.Username, u.Fullname, u.Email, u.Phone, int(u.Role), u.Specialty, u.IsActive)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// ListDoctors returns active doctors matching every non-empty filter field.
func (r *PgRepository) ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1
		  AND is_active
		  AND ($2 = '' OR specialty ILIKE $2)
		  AND ($3 = '' OR fullname ILIKE $3)
		  AND ($4 = '' OR username ILIKE $4)
		  AND ($5 = '' OR email ILIKE $5)
		  AND ($6 = '' OR phone ILIKE $6)
		ORDER BY fullname, username
		LIMIT $7 OFFSET $8
	`, int(RoleDoctor),
		containsPattern(f.Specialty),
		containsPattern(f.Fullname),
		containsPattern(f.Username),
		containsPattern(f.Email),
		containsPattern(f.Phone),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into an ILIKE substring pattern, or "" when s is blank.
func containsPattern(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(s) + "%"
}

// Schedules

func (r *PgRepository) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE id = $1
	`, id)
	return scanSchedule(row)
}

func (r *PgRepository) FindSchedules(ctx context.Context, doctorID uuid.UUID, day Weekday) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY start_minute
	`, doctorID, int(day))
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgRepository) FindOverlappingSchedules(ctx context.Context, doctorID uuid.UUID, day Weekday, slot timeslot.Slot, excludingID uuid.UUID) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1
		  AND day_of_week = $2
		  AND start_minute < $3
		  AND end_minute > $4
		  AND id <> $5
		ORDER BY start_minute
	`, doctorID, int(day), int(slot.End), int(slot.Start), excludingID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgRepository) ListSchedulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_minute
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectSchedules(rows)
}

func (r *PgRepository) CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error) {
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (id, doctor_id, day_of_week, start_minute, end_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+scheduleColumns,
		id, s.DoctorID, int(s.Day), int(s.Slot.Start), int(s.Slot.End))

	created, err := scanSchedule(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *PgRepository) UpdateSchedule(ctx context.Context, s *Schedule) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE schedules
		SET doctor_id = $2,
		    day_of_week = $3,
		    start_minute = $4,
		    end_minute = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+scheduleColumns,
		s.ID, s.DoctorID, int(s.Day), int(s.Slot.Start), int(s.Slot.End))

	updated, err := scanSchedule(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func collectSchedules(rows pgx.Rows) ([]Schedule, error) {
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Visits

func (r *PgRepository) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE id = $1
	`, id)
	return scanVisit(row)
}

func (r *PgRepository) FindOverlappingVisits(ctx context.Context, doctorID uuid.UUID, date time.Time, slot timeslot.Slot, excludingID uuid.UUID) ([]VisitRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, start_minute, end_minute
		FROM visits
		WHERE doctor_id = $1
		  AND visit_date = $2
		  AND start_minute < $3
		  AND end_minute > $4
		  AND id <> $5
		ORDER BY start_minute
	`, doctorID, DateOnly(date), int(slot.End), int(slot.Start), excludingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []VisitRef
	for rows.Next() {
		var ref VisitRef
		var start, end int
		if err := rows.Scan(&ref.ID, &ref.PatientID, &start, &end); err != nil {
			return nil, err
		}
		ref.Slot = timeslot.New(timeslot.Clock(start), timeslot.Clock(end))
		result = append(result, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE patient_id = $1
		ORDER BY visit_date DESC, start_minute DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *PgRepository) ListVisitsByDoctorFrom(ctx context.Context, doctorID uuid.UUID, from time.Time, limit int) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE doctor_id = $1
		  AND visit_date >= $2
		ORDER BY visit_date, start_minute
		LIMIT $3
	`, doctorID, DateOnly(from), limit)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *PgRepository) CreateVisit(ctx context.Context, v *Visit) (*Visit, error) {
	id := v.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, doctor_id, patient_id, visit_date, start_minute, end_minute, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+visitColumns,
		id, v.DoctorID, v.PatientID, DateOnly(v.Date), int(v.Slot.Start), int(v.Slot.End), v.Status, v.Description)

	created, err := scanVisit(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// UpdateVisit rewrites the row in place so the visit never disappears while
// it is being edited.
func (r *PgRepository) UpdateVisit(ctx context.Context, v *Visit) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE visits
		SET doctor_id = $2,
		    patient_id = $3,
		    visit_date = $4,
		    start_minute = $5,
		    end_minute = $6,
		    status = $7,
		    description = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+visitColumns,
		v.ID, v.DoctorID, v.PatientID, DateOnly(v.Date), int(v.Slot.Start), int(v.Slot.End), v.Status, v.Description)

	updated, err := scanVisit(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

// FindStaleScheduled returns scheduled visits whose start is not after now.
func (r *PgRepository) FindStaleScheduled(ctx context.Context, now time.Time) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE status = 'scheduled'
		  AND (visit_date < $1 OR (visit_date = $1 AND start_minute <= $2))
	`, DateOnly(now), now.Hour()*60+now.Minute())
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *PgRepository) UpdateVisitStatus(ctx context.Context, id uuid.UUID, from, to VisitStatus) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE visits
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+visitColumns,
		id, to, from)

	return scanVisit(row)
}

func collectVisits(rows pgx.Rows) ([]Visit, error) {
	defer rows.Close()

	var result []Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Diagnoses

func (r *PgRepository) GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+diagnosisColumns+`
		FROM diagnoses
		WHERE id = $1
	`, id)
	return scanDiagnosis(row)
}

func (r *PgRepository) ListDiagnosesByPatient(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+diagnosisColumns+`
		FROM diagnoses
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateDiagnosis(ctx context.Context, d *Diagnosis) (*Diagnosis, error) {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO diagnoses (id, patient_id, doctor_id, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+diagnosisColumns,
		id, d.PatientID, d.DoctorID, d.Description, d.IsActive)

	return scanDiagnosis(row)
}

func (r *PgRepository) SetDiagnosisActive(ctx context.Context, id uuid.UUID, active bool) (*Diagnosis, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE diagnoses
		SET is_active = $2
		WHERE id = $1
		RETURNING `+diagnosisColumns,
		id, active)

	return scanDiagnosis(row)
}

// Events

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, entity_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.EntityType, ev.EntityID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
