package api

import (
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/validation"
)

var violationMessages = map[validation.Kind]string{
	validation.DoctorRequired:           "Doctor must be assigned.",
	validation.DoctorInactive:           "The doctor is not active.",
	validation.DoctorAndPatientRequired: "Both doctor and patient must have a user account.",
	validation.DoctorSelfVisit:          "Doctor cannot have a visit with themselves.",
	validation.InvalidUserLevel:         "This type of user doesn't exist.",
	validation.InactiveDoctor:           "The doctor is not active.",
	validation.InvalidStartEnd:          "Start time must be before end time.",
	validation.InvalidTimeIncrement:     "Both start and end times must be in 15-minute increments.",
	validation.ExceededWorkDayDuration:  "The duration of a visit cannot exceed 2 hours.",
	validation.InvalidTimeFormat:        "Invalid time format.",
	validation.InvalidDayOfWeek:         "Day of week must be between 0 (Monday) and 6 (Sunday).",
	validation.OverlappingVisit:         "The doctor already has a visit scheduled during this time.",
	validation.OutsideSchedule:          "The visit is outside the doctor's schedule.",
	validation.ScheduleOverlap:          "This schedule overlaps with an existing schedule for the doctor.",
	validation.InvalidVisitStatus:       "A future visit cannot have the status 'Visited' or 'Missed'.",
	validation.InvalidPastVisitStatus:   "A past visit cannot have the status 'Scheduled'.",
	validation.RequiredSpecialty:        "Specialty is required for doctors.",
	validation.InvalidSpecialty:         "Specialty is not allowed for this type of user.",
	validation.InvalidSpecialtyLetters:  "Specialty must contain only letters.",
	validation.DescriptionRequired:      "Description is required.",
	validation.ShortDescription:         "Description must be more detailed.",
	validation.LongDescription:          "Description cannot be longer than 500 characters.",
	validation.InvalidUsername:          "Username is required and cannot be longer than 15 characters.",
	validation.InvalidFullname:          "Full name is required and cannot be longer than 50 characters.",
}

// message renders a violation for people. Role checks read differently
// depending on which participant failed.
func message(v validation.Violation) string {
	if v.Kind == validation.InvalidUserLevel {
		switch v.Field {
		case validation.FieldDoctor:
			return "The assigned doctor must have the Doctor user level."
		case validation.FieldPatient:
			return "The assigned patient must have the Patient user level."
		}
	}
	if msg, ok := violationMessages[v.Kind]; ok {
		return msg
	}
	return v.Kind.String()
}

func toViolationResponses(vs []validation.Violation) []ViolationResponse {
	out := make([]ViolationResponse, len(vs))
	for i, v := range vs {
		out[i] = ViolationResponse{
			Field:   v.Field,
			Code:    v.Kind.String(),
			Message: message(v),
		}
		if v.EntityID != uuid.Nil {
			id := v.EntityID
			out[i].EntityID = &id
		}
		if v.Interval != nil {
			out[i].Interval = v.Interval.String()
		}
	}
	return out
}
