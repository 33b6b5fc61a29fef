package person

import (
	"strconv"
	"strings"
	"time"
)

// Gender is a normalized gender code. The corpus uses "M" and "V"; anything
// else normalizes to GenderUnknown.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "M"
	GenderFemale  Gender = "V"
)

// Opposite returns the other known gender, or unknown.
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return GenderUnknown
	}
}

// DefaultDate is the sentinel record date the corpus uses for "unknown".
// Parsed dates equal to it are treated as unset.
var DefaultDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Address is the address owned by a Person. An Address is present iff both
// postcode and house number are set.
type Address struct {
	Postcode       string
	HouseNumber    int
	HouseNumberExt string
	Street         string
	City           string
	Country        string
}

// Present reports whether the address carries enough data to identify a
// dwelling.
func (a Address) Present() bool {
	return a.Postcode != "" && a.HouseNumber != 0
}

// ID synthesizes the corpus address identifier from postcode, house number
// and extension.
func (a Address) ID() string {
	parts := make([]string, 0, 3)
	if a.Postcode != "" {
		parts = append(parts, a.Postcode)
	}
	if a.HouseNumber != 0 {
		parts = append(parts, strconv.Itoa(a.HouseNumber))
	}
	if a.HouseNumberExt != "" {
		parts = append(parts, a.HouseNumberExt)
	}
	return strings.Join(parts, " ")
}

// Person is the unit of matching: name, address, contact fields and record
// provenance. Persons are created per request and mutated in place by the
// normalizer; nothing here is persisted.
type Person struct {
	Lastname   string
	Initials   string
	Gender     Gender
	Firstname  string
	Middlename string

	Address Address

	Mobile      string
	Landline    string
	DateOfBirth time.Time
	Email       string

	Date   time.Time
	Source string
}

// FromAddress builds a Person carrying only an address, the starting point
// for an address upgrade.
func FromAddress(a Address) Person {
	return Person{Address: a}
}

// Matchable reports whether the person carries enough fields to build a
// search query: a named person (lastname and initials) or a locatable one
// (postcode and house number).
func (p Person) Matchable() bool {
	if p.Lastname != "" && p.Initials != "" {
		return true
	}
	return p.Address.Present()
}

// HasName reports whether any name component is set. A person without a name
// falls back to the address-only query.
func (p Person) HasName() bool {
	return p.Lastname != "" || p.Initials != ""
}

// AsMap flattens every field into a map. Reconstructing via FromMap preserves
// every field.
func (p Person) AsMap() map[string]any {
	return map[string]any{
		"lastname":        p.Lastname,
		"initials":        p.Initials,
		"gender":          string(p.Gender),
		"firstname":       p.Firstname,
		"middlename":      p.Middlename,
		"postcode":        p.Address.Postcode,
		"housenumber":     p.Address.HouseNumber,
		"housenumber_ext": p.Address.HouseNumberExt,
		"street":          p.Address.Street,
		"city":            p.Address.City,
		"country":         p.Address.Country,
		"mobile":          p.Mobile,
		"landline":        p.Landline,
		"date_of_birth":   p.DateOfBirth,
		"email":           p.Email,
		"date":            p.Date,
		"source":          p.Source,
	}
}

// FromMap rebuilds a Person from the AsMap representation.
func FromMap(m map[string]any) Person {
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	date := func(key string) time.Time {
		v, _ := m[key].(time.Time)
		return v
	}
	housenumber, _ := m["housenumber"].(int)
	return Person{
		Lastname:   str("lastname"),
		Initials:   str("initials"),
		Gender:     Gender(str("gender")),
		Firstname:  str("firstname"),
		Middlename: str("middlename"),
		Address: Address{
			Postcode:       str("postcode"),
			HouseNumber:    housenumber,
			HouseNumberExt: str("housenumber_ext"),
			Street:         str("street"),
			City:           str("city"),
			Country:        str("country"),
		},
		Mobile:      str("mobile"),
		Landline:    str("landline"),
		DateOfBirth: date("date_of_birth"),
		Email:       str("email"),
		Date:        date("date"),
		Source:      str("source"),
	}
}
