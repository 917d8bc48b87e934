package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Diagnosis text bounds, in characters.
const (
	MinDescriptionLength = 10
	MaxDescriptionLength = 500
)

type DiagnosisInput struct {
	Doctor      *clinic.User
	Patient     *clinic.User
	Description string
}

func checkDiagnosis(mode Mode, in DiagnosisInput) Result {
	rec := newRecorder(mode)

	if _, stop := checkParticipants(rec, in.Doctor, in.Patient, false); stop {
		return rec.result()
	}

	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		rec.fail(FieldDescription, DescriptionRequired)
	case utf8.RuneCountInString(desc) < MinDescriptionLength:
		rec.fail(FieldDescription, ShortDescription)
	case utf8.RuneCountInString(desc) > MaxDescriptionLength:
		rec.fail(FieldDescription, LongDescription)
	}
	return rec.result()
}
