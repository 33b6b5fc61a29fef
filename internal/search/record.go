// Package search talks to the person-records search backend: it executes
// compiled queries and decodes hits into domain Persons.
package search

import (
	"personmatch/internal/normalize"
	"personmatch/internal/person"
)

// Record is one indexed person document as stored in the search backend.
type Record struct {
	Details struct {
		Lastname string `json:"lastname"`
		Initials string `json:"initials"`
		Gender   string `json:"gender"`
	} `json:"details"`
	Address struct {
		AddressID      string `json:"address_id"`
		PostalCode     string `json:"postalCode"`
		HouseNumber    int    `json:"houseNumber"`
		HouseNumberExt string `json:"houseNumberExt"`
		Street         string `json:"street"`
		City           string `json:"city"`
		Country        string `json:"country"`
	} `json:"address"`
	Phone struct {
		Mobile string `json:"mobile"`
		Number string `json:"number"`
	} `json:"phoneNumber"`
	Birth struct {
		Date string `json:"date"`
	} `json:"birth"`
	Contact struct {
		Email string `json:"email"`
	} `json:"contact"`
	Date   string `json:"date"`
	Source string `json:"source"`
}

// Person converts the record into a domain Person. Unparseable dates and
// the sentinel default date come through as unset.
func (r Record) Person() person.Person {
	p := person.Person{
		Lastname: r.Details.Lastname,
		Initials: r.Details.Initials,
		Gender:   person.Gender(r.Details.Gender),
		Mobile:   r.Phone.Mobile,
		Landline: r.Phone.Number,
		Email:    r.Contact.Email,
		Source:   r.Source,
		Address: person.Address{
			Postcode:       r.Address.PostalCode,
			HouseNumber:    r.Address.HouseNumber,
			HouseNumberExt: r.Address.HouseNumberExt,
			Street:         r.Address.Street,
			City:           r.Address.City,
			Country:        r.Address.Country,
		},
	}
	if t, ok := normalize.ParseDate(r.Birth.Date); ok {
		p.DateOfBirth = t
	}
	if t, ok := normalize.ParseDate(r.Date); ok {
		p.Date = t
	}
	return p
}
