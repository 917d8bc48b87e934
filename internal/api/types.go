package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type RegisterUserRequest struct {
	Username  string  `json:"username"`
	Fullname  string  `json:"fullname"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role"`
	Specialty string  `json:"specialty,omitempty"`
}

type ScheduleRequest struct {
	DoctorID  string `json:"doctor_id"`
	DayOfWeek *int   `json:"day_of_week"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type VisitRequest struct {
	DoctorID    string `json:"doctor_id"`
	PatientID   string `json:"patient_id"`
	Date        string `json:"date"` // YYYY-MM-DD
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
}

type VisitStatusRequest struct {
	Status string `json:"status"`
}

type DiagnosisRequest struct {
	DoctorID    string `json:"doctor_id"`
	PatientID   string `json:"patient_id"`
	Description string `json:"description"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Specialty *string   `json:"specialty,omitempty"`
	IsActive  bool      `json:"is_active"`
}

type ScheduleResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"`
	Day       string    `json:"day"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
}

type VisitResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Date        string    `json:"date"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
}

type DiagnosisResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ViolationResponse struct {
	Field    string     `json:"field,omitempty"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	EntityID *uuid.UUID `json:"entity_id,omitempty"`
	Interval string     `json:"interval,omitempty"`
}

type ValidationErrorResponse struct {
	Error      string              `json:"error"`
	Violations []ViolationResponse `json:"violations"`
}

type CheckVisitResponse struct {
	OK         bool                `json:"ok"`
	Violations []ViolationResponse `json:"violations"`
}

func toUserResponse(u *clinic.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Fullname:  u.Fullname,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		Specialty: u.Specialty,
		IsActive:  u.IsActive,
	}
}

func toScheduleResponse(s clinic.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		DayOfWeek: int(s.Day),
		Day:       s.Day.String(),
		Start:     s.Slot.Start.String(),
		End:       s.Slot.End.String(),
	}
}

func toVisitResponse(v clinic.Visit) VisitResponse {
	return VisitResponse{
		ID:          v.ID,
		DoctorID:    v.DoctorID,
		PatientID:   v.PatientID,
		Date:        v.Date.Format(time.DateOnly),
		Start:       v.Slot.Start.String(),
		End:         v.Slot.End.String(),
		Status:      string(v.Status),
		Description: v.Description,
	}
}

func toDiagnosisResponse(d clinic.Diagnosis) DiagnosisResponse {
	return DiagnosisResponse{
		ID:          d.ID,
		PatientID:   d.PatientID,
		DoctorID:    d.DoctorID,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
	}
}
