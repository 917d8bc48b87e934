package validation

import "fmt"

// Kind identifies a single validation rule that a write can violate.
// Kinds implement error so a failed Result can be matched with errors.Is.
type Kind int

const (
	DoctorRequired Kind = iota + 1
	DoctorInactive
	DoctorAndPatientRequired
	DoctorSelfVisit
	InvalidUserLevel
	InactiveDoctor
	InvalidStartEnd
	InvalidTimeIncrement
	ExceededWorkDayDuration
	InvalidTimeFormat
	InvalidDayOfWeek
	OverlappingVisit
	OutsideSchedule
	ScheduleOverlap
	InvalidVisitStatus
	InvalidPastVisitStatus
	RequiredSpecialty
	InvalidSpecialty
	InvalidSpecialtyLetters
	DescriptionRequired
	ShortDescription
	LongDescription
	InvalidUsername
	InvalidFullname
)

var kindCodes = map[Kind]string{
	DoctorRequired:           "doctor_required",
	DoctorInactive:           "doctor_inactive",
	DoctorAndPatientRequired: "doctor_and_patient_required",
	DoctorSelfVisit:          "doctor_self_visit",
	InvalidUserLevel:         "invalid_user_level",
	InactiveDoctor:           "inactive_doctor",
	InvalidStartEnd:          "invalid_start_end_time",
	InvalidTimeIncrement:     "invalid_time_increment",
	ExceededWorkDayDuration:  "exceeded_work_day_duration",
	InvalidTimeFormat:        "invalid_time_format",
	InvalidDayOfWeek:         "invalid_day_of_week",
	OverlappingVisit:         "overlapping_visit",
	OutsideSchedule:          "outside_schedule",
	ScheduleOverlap:          "schedule_overlap",
	InvalidVisitStatus:       "invalid_visit_status",
	InvalidPastVisitStatus:   "invalid_past_visit_status",
	RequiredSpecialty:        "required_specialty",
	InvalidSpecialty:         "invalid_specialty",
	InvalidSpecialtyLetters:  "invalid_specialty_letters",
	DescriptionRequired:      "description_required",
	ShortDescription:         "short_description",
	LongDescription:          "long_description",
	InvalidUsername:          "invalid_username",
	InvalidFullname:          "invalid_fullname",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindCodes))
	for k := DoctorRequired; k <= InvalidFullname; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the stable snake_case code used on the wire.
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) Error() string { return k.String() }
