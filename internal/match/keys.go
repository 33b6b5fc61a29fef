package match

import (
	"fmt"
	"math"
	"strings"

	"personmatch/internal/person"
	"personmatch/pkg/platform/sentinel"
)

// matchedKeys compares the input against the composite. The comparison is
// asymmetric: the input decides which keys are even considered, and only a
// populated input field can score.
func (m *Match) matchedKeys() []Key {
	var keys []Key
	in, out := m.input, m.composite

	if nameMatches(in, out) {
		keys = append(keys, KeyName)
	}
	if addressMatches(in.Address, out.Address) {
		keys = append(keys, KeyAddress)
	}
	if in.Gender != person.GenderUnknown && in.Gender == out.Gender {
		keys = append(keys, KeyGender)
	}
	if in.Mobile != "" && in.Mobile == out.Mobile {
		keys = append(keys, KeyMobile)
	}
	if in.Landline != "" && in.Landline == out.Landline {
		keys = append(keys, KeyLandline)
	}
	if !in.DateOfBirth.IsZero() && in.DateOfBirth.Equal(out.DateOfBirth) {
		keys = append(keys, KeyDateOfBirth)
	}
	if in.Email != "" && in.Email == out.Email {
		keys = append(keys, KeyEmail)
	}
	if in.Lastname != "" && in.Lastname == out.Lastname &&
		in.Address.Postcode != "" && in.Address.Postcode == out.Address.Postcode {
		keys = append(keys, KeyFamily)
	}
	return keys
}

// nameMatches accepts an exact full-name match, or a partial lastname with
// a compatible initials prefix.
func nameMatches(in *person.Person, out person.Person) bool {
	switch {
	case in.Lastname != "" && in.Initials != "":
		if in.Initials+" "+in.Lastname == out.Initials+" "+out.Lastname {
			return true
		}
		initials := strings.Contains(out.Initials, in.Initials) || strings.Contains(in.Initials, out.Initials)
		lastname := strings.Contains(out.Lastname, in.Lastname) || strings.Contains(in.Lastname, out.Lastname)
		return initials && lastname && out.Initials != "" && out.Lastname != ""
	case in.Lastname != "":
		return in.Lastname == out.Lastname
	case in.Initials != "":
		return in.Initials == out.Initials
	default:
		return false
	}
}

// addressMatches compares on the most specific level the input provides:
// full address id, then postcode plus house number, then postcode alone,
// then house number alone.
func addressMatches(in, out person.Address) bool {
	switch {
	case in.Postcode != "" && in.HouseNumber != 0 && in.HouseNumberExt != "":
		return in.ID() == out.ID()
	case in.Postcode != "" && in.HouseNumber != 0:
		return in.Postcode == out.Postcode && in.HouseNumber == out.HouseNumber
	case in.Postcode != "":
		return in.Postcode == out.Postcode
	case in.HouseNumber != 0:
		return in.HouseNumber == out.HouseNumber
	default:
		return false
	}
}

// grade turns the matched keys and composite recency into a two-character
// grade, letter for key count and digit for record age in three-year steps.
func (m *Match) grade(keys []Key) (string, error) {
	var letter string
	switch n := len(keys); {
	case n >= 4:
		letter = "A"
	case n == 3:
		letter = "B"
	case n == 2:
		letter = "C"
	case n == 1:
		letter = "D"
	default:
		return "", fmt.Errorf("grade requested without matched keys: %w", sentinel.ErrMatch)
	}
	return letter + m.recencyDigit(), nil
}

func (m *Match) recencyDigit() string {
	if m.composite.Date.IsZero() {
		return "4"
	}
	age := float64(m.now().Year() - m.composite.Date.Year() + 1)
	digit := int(math.Ceil(age / 3))
	if digit > 4 {
		digit = 4
	}
	if digit < 1 {
		digit = 1
	}
	return fmt.Sprintf("%d", digit)
}
