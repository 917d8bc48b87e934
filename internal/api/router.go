package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Service ClinicService
	Health  *HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	svc := cfg.Service

	r.Post("/users", registerUserHandler(svc))
	r.Get("/users/{id}", getUserHandler(svc))

	r.Post("/schedules", createScheduleHandler(svc))
	r.Put("/schedules/{id}", updateScheduleHandler(svc))
	r.Delete("/schedules/{id}", deleteScheduleHandler(svc))

	r.Route("/visits", func(r chi.Router) {
		r.Post("/", bookVisitHandler(svc))
		r.Post("/check", checkVisitHandler(svc))
		r.Get("/{id}", getVisitHandler(svc))
		r.Put("/{id}", updateVisitHandler(svc))
		r.Delete("/{id}", deleteVisitHandler(svc))
		r.Post("/{id}/status", changeVisitStatusHandler(svc))
		r.Post("/{id}/cancel", cancelVisitHandler(svc))
	})

	r.Post("/diagnoses", createDiagnosisHandler(svc))
	r.Post("/diagnoses/{id}/toggle", toggleDiagnosisHandler(svc))

	r.Get("/doctors", searchDoctorsHandler(svc))
	r.Get("/doctors/{id}/schedules", listDoctorSchedulesHandler(svc))
	r.Get("/doctors/{id}/visits", listDoctorVisitsHandler(svc))
	r.Get("/patients/{id}/visits", listPatientVisitsHandler(svc))
	r.Get("/patients/{id}/diagnoses", listPatientDiagnosesHandler(svc))

	return r
}
