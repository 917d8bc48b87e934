package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/observability"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"Otolaryngology",
	"Gastroenterology",
}

// Weekly windows handed out to seeded doctors.
var shifts = []timeslot.Slot{
	timeslot.New(timeslot.MustClock(8, 0), timeslot.MustClock(12, 0)),
	timeslot.New(timeslot.MustClock(9, 0), timeslot.MustClock(17, 0)),
	timeslot.New(timeslot.MustClock(12, 30), timeslot.MustClock(18, 30)),
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	observability.InitLogger("seed", cfg.Env, cfg.LogLevel)
	log.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	doctors := envInt("SEED_DOCTORS", 50)
	patients := envInt("SEED_PATIENTS", 2000)

	if err := seedDoctors(context.Background(), pool, faker, doctors); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), pool, faker, patients); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

// seedDoctors inserts doctors with a Monday to Friday schedule each.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		repo := clinic.NewPgRepository(tx)
		suffix := faker.LetterN(4)

		for i := 0; i < count; i++ {
			specialty := specialties[faker.Number(0, len(specialties)-1)]
			if res := validation.CheckUserProfile(clinic.RoleDoctor, specialty); !res.OK() {
				return fmt.Errorf("specialty %q: %w", specialty, res.Err())
			}

			doctor, err := repo.CreateUser(ctx, fakeUser(faker, fmt.Sprintf("dr%s%04d", suffix, i), clinic.RoleDoctor, &specialty))
			if err != nil {
				return fmt.Errorf("create doctor: %w", err)
			}

			shift := shifts[faker.Number(0, len(shifts)-1)]
			for day := clinic.Monday; day <= clinic.Friday; day++ {
				_, err := repo.CreateSchedule(ctx, &clinic.Schedule{DoctorID: doctor.ID, Day: day, Slot: shift})
				if err != nil {
					return fmt.Errorf("create schedule: %w", err)
				}
			}
		}

		log.Info().Msg("doctors seeded")
		return nil
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500
	suffix := faker.LetterN(4)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			repo := clinic.NewPgRepository(tx)
			for i := offset; i < end; i++ {
				if _, err := repo.CreateUser(ctx, fakeUser(faker, fmt.Sprintf("pt%s%05d", suffix, i), clinic.RolePatient, nil)); err != nil {
					return fmt.Errorf("create patient: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("seeded", end).Int("total", count).Msg("patients batch committed")
	}

	log.Info().Msg("patients seeded")
	return nil
}

func fakeUser(faker *gofakeit.Faker, username string, role clinic.Role, specialty *string) *clinic.User {
	email := faker.Email()
	phone := faker.Phone()
	fullname := faker.FirstName() + " " + faker.LastName()
	if len(fullname) > 50 {
		fullname = fullname[:50]
	}
	return &clinic.User{
		Username:  username,
		Fullname:  fullname,
		Email:     &email,
		Phone:     &phone,
		Role:      role,
		Specialty: specialty,
		IsActive:  true,
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
