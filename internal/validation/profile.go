package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

const (
	MaxUsernameLength = 15
	MaxFullnameLength = 50
)

type UserInput struct {
	Username  string
	Fullname  string
	Role      clinic.Role
	Specialty string
}

// CheckUserIdentity requires a username and a full name that fit their
// columns. Both are trimmed first.
func CheckUserIdentity(username, fullname string) Result {
	var res Result
	if n := utf8.RuneCountInString(strings.TrimSpace(username)); n == 0 || n > MaxUsernameLength {
		res.Violations = append(res.Violations, Violation{Field: FieldUsername, Kind: InvalidUsername})
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(fullname)); n == 0 || n > MaxFullnameLength {
		res.Violations = append(res.Violations, Violation{Field: FieldFullname, Kind: InvalidFullname})
	}
	return res
}

// CheckUserProfile enforces the specialty rules: doctors need one made of
// letters only, everyone else must leave it empty.
func CheckUserProfile(role clinic.Role, specialty string) Result {
	var res Result
	add := func(field string, k Kind) {
		res.Violations = append(res.Violations, Violation{Field: field, Kind: k})
	}

	if !role.Valid() {
		add(FieldRole, InvalidUserLevel)
		return res
	}

	specialty = strings.TrimSpace(specialty)
	if role != clinic.RoleDoctor {
		if specialty != "" {
			add(FieldSpecialty, InvalidSpecialty)
		}
		return res
	}

	if specialty == "" {
		add(FieldSpecialty, RequiredSpecialty)
		return res
	}
	for _, r := range specialty {
		if !unicode.IsLetter(r) {
			add(FieldSpecialty, InvalidSpecialtyLetters)
			break
		}
	}
	return res
}
