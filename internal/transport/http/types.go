package http

import (
	"personmatch/internal/match"
	"personmatch/internal/normalize"
	"personmatch/internal/person"
)

// MatchRequest is the wire form of a person to match. House numbers and
// dates arrive as strings; parsing is lenient and drops what it cannot
// read.
type MatchRequest struct {
	Lastname       string `json:"lastname"`
	Initials       string `json:"initials"`
	Firstname      string `json:"firstname"`
	Middlename     string `json:"middlename"`
	Gender         string `json:"gender"`
	Postcode       string `json:"postcode"`
	HouseNumber    string `json:"housenumber"`
	HouseNumberExt string `json:"housenumber_ext"`
	Street         string `json:"street"`
	City           string `json:"city"`
	Country        string `json:"country"`
	DateOfBirth    string `json:"date_of_birth"`
	Mobile         string `json:"mobile"`
	Landline       string `json:"landline"`
	Email          string `json:"email"`
	Date           string `json:"date"`
	Source         string `json:"source"`
}

// Person converts the request into a domain Person.
func (r MatchRequest) Person() person.Person {
	p := person.Person{
		Lastname:   r.Lastname,
		Initials:   r.Initials,
		Firstname:  r.Firstname,
		Middlename: r.Middlename,
		Gender:     person.Gender(r.Gender),
		Mobile:     r.Mobile,
		Landline:   r.Landline,
		Email:      r.Email,
		Source:     r.Source,
		Address: person.Address{
			Postcode:       r.Postcode,
			HouseNumber:    normalize.HouseNumber(r.HouseNumber),
			HouseNumberExt: r.HouseNumberExt,
			Street:         r.Street,
			City:           r.City,
			Country:        r.Country,
		},
	}
	if t, ok := normalize.ParseDate(r.DateOfBirth); ok {
		p.DateOfBirth = t
	}
	if t, ok := normalize.ParseDate(r.Date); ok {
		p.Date = t
	}
	return p
}

// UpgradeRequest is the wire form of an address to enrich.
type UpgradeRequest struct {
	Postcode       string `json:"postcode"`
	HouseNumber    string `json:"housenumber"`
	HouseNumberExt string `json:"housenumber_ext"`
	Street         string `json:"street"`
	City           string `json:"city"`
	Country        string `json:"country"`
}

// Address converts the request into a domain Address.
func (r UpgradeRequest) Address() person.Address {
	return person.Address{
		Postcode:       r.Postcode,
		HouseNumber:    normalize.HouseNumber(r.HouseNumber),
		HouseNumberExt: r.HouseNumberExt,
		Street:         r.Street,
		City:           r.City,
		Country:        r.Country,
	}
}

// MatchResponse carries the graded composite back to the caller.
type MatchResponse struct {
	Person PersonResponse `json:"person"`
	Grade  string         `json:"grade"`
	Keys   []match.Key    `json:"keys"`
}

// PersonResponse is the wire form of a composite person.
type PersonResponse struct {
	Lastname       string `json:"lastname,omitempty"`
	Initials       string `json:"initials,omitempty"`
	Firstname      string `json:"firstname,omitempty"`
	Middlename     string `json:"middlename,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Postcode       string `json:"postcode,omitempty"`
	HouseNumber    int    `json:"housenumber,omitempty"`
	HouseNumberExt string `json:"housenumber_ext,omitempty"`
	Street         string `json:"street,omitempty"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	Landline       string `json:"landline,omitempty"`
	Email          string `json:"email,omitempty"`
	Date           string `json:"date,omitempty"`
	Source         string `json:"source,omitempty"`
}

// FromPerson converts a domain Person to its response form.
func FromPerson(p person.Person) PersonResponse {
	resp := PersonResponse{
		Lastname:       p.Lastname,
		Initials:       p.Initials,
		Firstname:      p.Firstname,
		Middlename:     p.Middlename,
		Gender:         string(p.Gender),
		Postcode:       p.Address.Postcode,
		HouseNumber:    p.Address.HouseNumber,
		HouseNumberExt: p.Address.HouseNumberExt,
		Street:         p.Address.Street,
		City:           p.Address.City,
		Country:        p.Address.Country,
		Mobile:         p.Mobile,
		Landline:       p.Landline,
		Email:          p.Email,
		Source:         p.Source,
	}
	if !p.DateOfBirth.IsZero() {
		resp.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
	}
	if !p.Date.IsZero() {
		resp.Date = p.Date.Format("2006-01-02")
	}
	return resp
}
