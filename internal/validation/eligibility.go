package validation

import (
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

// checkParticipants applies the doctor/patient rules shared by visits and
// diagnoses. It reports whether both users were supplied and whether the
// recorder asked to stop.
func checkParticipants(rec *recorder, doctor, patient *clinic.User, forbidSelf bool) (present, stop bool) {
	if doctor == nil || patient == nil {
		return false, rec.fail(FieldForm, DoctorAndPatientRequired)
	}
	if forbidSelf && doctor.ID == patient.ID {
		if rec.fail(FieldForm, DoctorSelfVisit) {
			return true, true
		}
	}
	if doctor.Role != clinic.RoleDoctor && rec.fail(FieldDoctor, InvalidUserLevel) {
		return true, true
	}
	if patient.Role != clinic.RolePatient && rec.fail(FieldPatient, InvalidUserLevel) {
		return true, true
	}
	if !doctor.IsActive && rec.fail(FieldDoctor, InactiveDoctor) {
		return true, true
	}
	return true, false
}

// checkClocks reports a start or end that was missing or unreadable. Rules
// that compare times are skipped when readable is false.
func checkClocks(rec *recorder, slot timeslot.Slot) (readable, stop bool) {
	if !slot.Start.Valid() && rec.fail(FieldStart, InvalidTimeFormat) {
		return false, true
	}
	if !slot.End.Valid() && rec.fail(FieldEnd, InvalidTimeFormat) {
		return false, true
	}
	return slot.Readable(), false
}
