package query

import (
	"strings"

	"personmatch/internal/person"
	"personmatch/internal/probability"
)

// Document field paths in the search index.
const (
	fieldLastname        = "details.lastname"
	fieldLastnameKeyword = "details.lastname.keyword"
	fieldInitials        = "details.initials"
	fieldInitialsKeyword = "details.initials.keyword"
	fieldGenderKeyword   = "details.gender.keyword"
	fieldBirthDate       = "birth.date"
	fieldAddressID       = "address.address_id.keyword"
	fieldPostcodeKeyword = "address.postalCode.keyword"
	fieldHouseNumber     = "address.houseNumber"
	fieldMobile          = "phoneNumber.mobile"
	fieldLandline        = "phoneNumber.number"
	fieldEmail           = "contact.email"
)

const dateLayout = "2006-01-02"

// PersonQuery weights one all-of sub-clause per accepted field combination,
// so each hit satisfies at least one statistically significant combination.
func PersonQuery(p *person.Person, combinations []probability.Combination) Query {
	should := make([]Clause, 0, len(combinations))
	for _, combo := range combinations {
		must := make([]Clause, 0, 2+len(combo.Fields))
		if c := lastnameClause(combo.Lastname, combo.Fuzzy); c != nil {
			must = append(must, c)
		}
		if c := initialsClause(combo.Initials, p.Initials); c != nil {
			must = append(must, c)
		}
		for _, field := range combo.Fields {
			if c := extraFieldClause(p, field); c != nil {
				must = append(must, c)
			}
		}
		should = append(should, Bool{Must: must})
	}
	return Query{Root: Bool{Should: should}, Sort: defaultSort}
}

// AddressQuery matches on the synthesized address id alone.
func AddressQuery(p *person.Person) Query {
	return Query{
		Root: Match{Field: fieldAddressID, Query: p.Address.ID()},
		Sort: defaultSort,
	}
}

// CompleteQuery is the unweighted fallback: any populated field may match.
func CompleteQuery(p *person.Person) Query {
	var should []Clause
	if p.Lastname != "" {
		should = append(should, lastnameClause(p.Lastname, true))
	}
	if p.Initials != "" {
		should = append(should, initialsPrefixClause(p.Initials))
	}
	if p.Gender != person.GenderUnknown {
		should = append(should, genderClause(p.Gender))
	}
	if !p.DateOfBirth.IsZero() {
		should = append(should, dateOfBirthClause(p))
	}
	if p.Address.Present() {
		should = append(should, addressClause(p))
	}
	if p.Address.Postcode != "" {
		should = append(should, postcodeClause(p))
	}
	if p.Email != "" {
		should = append(should, Term{Field: fieldEmail, Value: p.Email})
	}
	if p.Mobile != "" {
		should = append(should, phoneClause(fieldMobile, p.Mobile))
	}
	if p.Landline != "" {
		should = append(should, phoneClause(fieldLandline, p.Landline))
	}
	return Query{Root: Bool{Should: should}, Sort: defaultSort}
}

// lastnameClause matches the lastname analyzed (optionally fuzzy), the
// Dutch ij/y orthographic variant when applicable, and the exact keyword
// form with a boost.
func lastnameClause(lastname string, fuzzy bool) Clause {
	if lastname == "" {
		return nil
	}
	fuzziness := "0"
	if fuzzy {
		fuzziness = "AUTO"
	}
	should := []Clause{
		Match{Field: fieldLastname, Query: lastname, Fuzziness: fuzziness},
	}
	if strings.Contains(lastname, "ij") {
		should = append(should, Match{Field: fieldLastname, Query: strings.ReplaceAll(lastname, "ij", "y"), Fuzziness: fuzziness})
	} else if strings.Contains(lastname, "y") {
		should = append(should, Match{Field: fieldLastname, Query: strings.ReplaceAll(lastname, "y", "ij"), Fuzziness: fuzziness})
	}
	should = append(should, Match{Field: fieldLastnameKeyword, Query: lastname, Boost: 2})
	return Bool{Should: should, MinimumShouldMatch: 1}
}

// initialsClause builds the clause for a base's initials variant. The full
// form matches exact-boosted or as prefix wildcard; a shortened form falls
// back to prefix terms over every length of the person's initials.
func initialsClause(initials, personInitials string) Clause {
	if initials == "" {
		return nil
	}
	if len(initials) == len(personInitials) {
		return Bool{
			Should: []Clause{
				Bool{Must: []Clause{Term{Field: fieldInitialsKeyword, Value: initials}}, Boost: 2},
				Wildcard{Field: fieldInitials, Pattern: strings.ToLower(initials) + "*"},
			},
			MinimumShouldMatch: 1,
			Boost:              2,
		}
	}
	return initialsPrefixClause(personInitials)
}

func initialsPrefixClause(initials string) Clause {
	should := make([]Clause, 0, len(initials))
	for i := 1; i <= len(initials); i++ {
		should = append(should, Term{Field: fieldInitialsKeyword, Value: initials[:i]})
	}
	return Bool{Should: should, MinimumShouldMatch: 1, Boost: 2}
}

// genderClause excludes the opposite gender rather than requiring a match,
// so records without gender still qualify.
func genderClause(g person.Gender) Clause {
	opposite := g.Opposite()
	if opposite == person.GenderUnknown {
		opposite = person.GenderFemale
	}
	return Bool{MustNot: []Clause{Term{Field: fieldGenderKeyword, Value: string(opposite)}}}
}

// dateOfBirthClause accepts records carrying the sentinel default date as
// well, since many sources never record a birth date.
func dateOfBirthClause(p *person.Person) Clause {
	return Bool{
		Should: []Clause{
			Term{Field: fieldBirthDate, Value: p.DateOfBirth.Format(dateLayout)},
			Term{Field: fieldBirthDate, Value: person.DefaultDate.Format(dateLayout)},
		},
		MinimumShouldMatch: 1,
	}
}

func addressClause(p *person.Person) Clause {
	return Bool{
		Should: []Clause{
			Match{Field: fieldAddressID, Query: p.Address.ID(), Boost: 2},
			Bool{Must: []Clause{
				Term{Field: fieldPostcodeKeyword, Value: p.Address.Postcode},
				Term{Field: fieldHouseNumber, Value: p.Address.HouseNumber},
			}},
		},
		MinimumShouldMatch: 1,
	}
}

func postcodeClause(p *person.Person) Clause {
	return Term{Field: fieldPostcodeKeyword, Value: p.Address.Postcode}
}

// phoneClause strips the Dutch dialing prefix; the index stores national
// numbers.
func phoneClause(field, number string) Clause {
	return Term{Field: field, Value: strings.ReplaceAll(number, "+31", "")}
}

func extraFieldClause(p *person.Person, field probability.Field) Clause {
	switch field {
	case probability.FieldDateOfBirth:
		return dateOfBirthClause(p)
	case probability.FieldAddress:
		return addressClause(p)
	case probability.FieldPostcode:
		return postcodeClause(p)
	case probability.FieldMobile:
		return phoneClause(fieldMobile, p.Mobile)
	case probability.FieldLandline:
		return phoneClause(fieldLandline, p.Landline)
	default:
		return nil
	}
}
