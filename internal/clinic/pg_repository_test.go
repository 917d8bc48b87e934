package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

func newMockRepo(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgRepository(mock), mock
}

func TestPgRepository_FindOverlappingVisits(t *testing.T) {
	repo, mock := newMockRepo(t)

	doctorID := uuid.New()
	patientID := uuid.New()
	visitID := uuid.New()
	editing := uuid.New()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	slot := timeslot.New(timeslot.MustClock(10, 30), timeslot.MustClock(11, 30))

	rows := pgxmock.NewRows([]string{"id", "patient_id", "start_minute", "end_minute"}).
		AddRow(visitID, patientID, 600, 660)
	mock.ExpectQuery("FROM visits").
		WithArgs(doctorID, date, 690, 630, editing).
		WillReturnRows(rows)

	refs, err := repo.FindOverlappingVisits(context.Background(), doctorID, date, slot, editing)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, visitID, refs[0].ID)
	assert.Equal(t, patientID, refs[0].PatientID)
	assert.Equal(t, "10:00-11:00", refs[0].Slot.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateVisit_ExclusionViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO visits").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "visits_no_overlap"})

	_, err := repo.CreateVisit(context.Background(), &Visit{
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Slot:      timeslot.New(timeslot.MustClock(10, 0), timeslot.MustClock(11, 0)),
		Status:    VisitActive,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Contains(t, err.Error(), "visits_no_overlap")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_DeleteVisit_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM visits").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteVisit(context.Background(), id)
	assert.ErrorIs(t, err, ErrVisitNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepository_CreateUser_Duplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "jdoe", "John Doe", pgxmock.AnyArg(), pgxmock.AnyArg(),
			int(RolePatient), pgxmock.AnyArg(), true).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.CreateUser(context.Background(), &User{
		Username: "jdoe",
		Fullname: "John Doe",
		Role:     RolePatient,
		IsActive: true,
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestMapWriteError(t *testing.T) {
	t.Run("passes unknown errors through", func(t *testing.T) {
		err := assert.AnError
		assert.Equal(t, err, mapWriteError(err))
	})

	t.Run("unique violation on another constraint is not a duplicate user", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}
		err := mapWriteError(pgErr)
		assert.NotErrorIs(t, err, ErrDuplicateUser)
		assert.Equal(t, error(pgErr), err)
	})

	t.Run("string too long", func(t *testing.T) {
		err := mapWriteError(&pgconn.PgError{Code: "22001"})
		assert.ErrorIs(t, err, ErrValueTooLong)
	})
}

func TestPgRepository_ListDoctors(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	specialty := "Cardiology"
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "username", "fullname", "email", "phone", "role", "specialty", "is_active", "created_at"}).
		AddRow(id, "drsmith", "Anna Smith", (*string)(nil), (*string)(nil), int(RoleDoctor), &specialty, true, created)
	mock.ExpectQuery("FROM users").
		WithArgs(int(RoleDoctor), "%cardio%", "", `%o\_neil%`, "", "", 20, 0).
		WillReturnRows(rows)

	doctors, err := repo.ListDoctors(context.Background(), DoctorFilter{
		Specialty: " cardio ",
		Username:  "o_neil",
	}, 20, 0)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, id, doctors[0].ID)
	assert.Equal(t, RoleDoctor, doctors[0].Role)
	assert.Equal(t, "Cardiology", *doctors[0].Specialty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
