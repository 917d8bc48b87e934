package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

// ClinicService is the part of booking.Service the HTTP layer uses.
type ClinicService interface {
	RegisterUser(ctx context.Context, req booking.UserRequest) (*clinic.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*clinic.User, error)
	SearchDoctors(ctx context.Context, f clinic.DoctorFilter, limit, offset int) ([]clinic.User, error)

	CreateSchedule(ctx context.Context, req booking.ScheduleRequest) (*clinic.Schedule, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, req booking.ScheduleRequest) (*clinic.Schedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	ListDoctorSchedules(ctx context.Context, doctorID uuid.UUID) ([]clinic.Schedule, error)

	BookVisit(ctx context.Context, req booking.VisitRequest) (*clinic.Visit, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, req booking.VisitRequest) (*clinic.Visit, error)
	CheckVisit(ctx context.Context, id uuid.UUID, req booking.VisitRequest) (validation.Result, error)
	ChangeVisitStatus(ctx context.Context, id uuid.UUID, to clinic.VisitStatus) (*clinic.Visit, error)
	CancelVisit(ctx context.Context, id uuid.UUID) (*clinic.Visit, error)
	DeleteVisit(ctx context.Context, id uuid.UUID) error
	GetVisit(ctx context.Context, id uuid.UUID) (*clinic.Visit, error)
	ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinic.Visit, error)
	ListUpcomingVisitsByDoctor(ctx context.Context, doctorID uuid.UUID, limit int) ([]clinic.Visit, error)

	CreateDiagnosis(ctx context.Context, req booking.DiagnosisRequest) (*clinic.Diagnosis, error)
	ToggleDiagnosis(ctx context.Context, id, requesterID uuid.UUID) (*clinic.Diagnosis, error)
	ListDiagnosesByPatient(ctx context.Context, patientID uuid.UUID) ([]clinic.Diagnosis, error)
}

// Users

func registerUserHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// an unknown role is reported by the validator with the other fields
		role, ok := clinic.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
		if !ok {
			role = clinic.Role(-1)
		}

		u, err := svc.RegisterUser(r.Context(), booking.UserRequest{
			Username:  req.Username,
			Fullname:  req.Fullname,
			Email:     req.Email,
			Phone:     req.Phone,
			Role:      role,
			Specialty: req.Specialty,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func getUserHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		u, err := svc.GetUser(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// searchDoctorsHandler lists active doctors; every filter is a
// case-insensitive substring match.
func searchDoctorsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := clinic.DoctorFilter{
			Specialty: q.Get("specialty"),
			Fullname:  q.Get("fullname"),
			Username:  q.Get("username"),
			Email:     q.Get("email"),
			Phone:     q.Get("phone"),
		}

		doctors, err := svc.SearchDoctors(r.Context(), filter, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := make([]UserResponse, len(doctors))
		for i := range doctors {
			resp[i] = toUserResponse(&doctors[i])
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Schedules

func createScheduleHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSchedule(w, r)
		if !ok {
			return
		}

		s, err := svc.CreateSchedule(r.Context(), req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(*s))
	}
}

func updateScheduleHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		req, ok := decodeSchedule(w, r)
		if !ok {
			return
		}

		s, err := svc.UpdateSchedule(r.Context(), id, req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(*s))
	}
}

func deleteScheduleHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteSchedule(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listDoctorSchedulesHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		schedules, err := svc.ListDoctorSchedules(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := make([]ScheduleResponse, len(schedules))
		for i, s := range schedules {
			resp[i] = toScheduleResponse(s)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Visits

func bookVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeVisit(w, r)
		if !ok {
			return
		}

		v, err := svc.BookVisit(r.Context(), req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toVisitResponse(*v))
	}
}

func updateVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		req, ok := decodeVisit(w, r)
		if !ok {
			return
		}

		v, err := svc.UpdateVisit(r.Context(), id, req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponse(*v))
	}
}

// checkVisitHandler validates a visit without saving it. The optional
// visit_id query parameter names the visit being edited.
func checkVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editing := uuid.Nil
		if raw := r.URL.Query().Get("visit_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_visit_id", "visit_id must be a valid UUID")
				return
			}
			editing = id
		}
		req, ok := decodeVisit(w, r)
		if !ok {
			return
		}

		res, err := svc.CheckVisit(r.Context(), editing, req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, CheckVisitResponse{
			OK:         res.OK(),
			Violations: toViolationResponses(res.Violations),
		})
	}
}

func getVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		v, err := svc.GetVisit(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponse(*v))
	}
}

func changeVisitStatusHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req VisitStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		status := clinic.VisitStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be one of scheduled, active, visited, missed, cancelled")
			return
		}

		v, err := svc.ChangeVisitStatus(r.Context(), id, status)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponse(*v))
	}
}

func cancelVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		v, err := svc.CancelVisit(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponse(*v))
	}
}

func deleteVisitHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteVisit(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientVisitsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)

		visits, err := svc.ListVisitsByPatient(r.Context(), id, limit, offset)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponses(visits))
	}
}

func listDoctorVisitsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		visits, err := svc.ListUpcomingVisitsByDoctor(r.Context(), id, queryInt(r, "limit", 20))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitResponses(visits))
	}
}

// Diagnoses

func createDiagnosisHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DiagnosisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		doctorID, ok := bodyID(w, req.DoctorID, "doctor_id")
		if !ok {
			return
		}
		patientID, ok := bodyID(w, req.PatientID, "patient_id")
		if !ok {
			return
		}

		d, err := svc.CreateDiagnosis(r.Context(), booking.DiagnosisRequest{
			DoctorID:    doctorID,
			PatientID:   patientID,
			Description: req.Description,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDiagnosisResponse(*d))
	}
}

// toggleDiagnosisHandler expects the caller's user id in X-User-ID.
func toggleDiagnosisHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		requester, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "X-User-ID header must be a valid UUID")
			return
		}

		d, err := svc.ToggleDiagnosis(r.Context(), id, requester)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toDiagnosisResponse(*d))
	}
}

func listPatientDiagnosesHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		diagnoses, err := svc.ListDiagnosesByPatient(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := make([]DiagnosisResponse, len(diagnoses))
		for i, d := range diagnoses {
			resp[i] = toDiagnosisResponse(d)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Request helpers

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bodyID parses an id from a payload. An empty value maps to uuid.Nil so the
// validator can report the missing participant with the other violations.
func bodyID(w http.ResponseWriter, raw, field string) (uuid.UUID, bool) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// parseSlot leaves an unreadable clock as timeslot.Unset; the validator
// reports it together with any other violation.
func parseSlot(start, end string) timeslot.Slot {
	s, err := timeslot.ParseClock(start)
	if err != nil {
		s = timeslot.Unset
	}
	e, err := timeslot.ParseClock(end)
	if err != nil {
		e = timeslot.Unset
	}
	return timeslot.New(s, e)
}

func decodeSchedule(w http.ResponseWriter, r *http.Request) (booking.ScheduleRequest, bool) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return booking.ScheduleRequest{}, false
	}
	doctorID, ok := bodyID(w, req.DoctorID, "doctor_id")
	if !ok {
		return booking.ScheduleRequest{}, false
	}
	// a missing day is out of range, so the validator reports it
	day := clinic.Weekday(-1)
	if req.DayOfWeek != nil {
		day = clinic.Weekday(*req.DayOfWeek)
	}

	return booking.ScheduleRequest{
		DoctorID: doctorID,
		Day:      day,
		Slot:     parseSlot(req.Start, req.End),
	}, true
}

// decodeVisit leaves an unreadable date as the zero time and unreadable
// clocks as timeslot.Unset.
func decodeVisit(w http.ResponseWriter, r *http.Request) (booking.VisitRequest, bool) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return booking.VisitRequest{}, false
	}
	doctorID, ok := bodyID(w, req.DoctorID, "doctor_id")
	if !ok {
		return booking.VisitRequest{}, false
	}
	patientID, ok := bodyID(w, req.PatientID, "patient_id")
	if !ok {
		return booking.VisitRequest{}, false
	}
	slot := parseSlot(req.Start, req.End)

	var status clinic.VisitStatus
	if req.Status != "" {
		status = clinic.VisitStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be one of scheduled, active, visited, missed, cancelled")
			return booking.VisitRequest{}, false
		}
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		date = time.Time{}
	}

	return booking.VisitRequest{
		DoctorID:    doctorID,
		PatientID:   patientID,
		Date:        date,
		Slot:        slot,
		Status:      status,
		Description: req.Description,
	}, true
}

func toVisitResponses(visits []clinic.Visit) []VisitResponse {
	resp := make([]VisitResponse, len(visits))
	for i, v := range visits {
		resp[i] = toVisitResponse(v)
	}
	return resp
}
