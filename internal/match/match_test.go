package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personmatch/internal/person"
	"personmatch/internal/query"
	"personmatch/internal/search"
	"personmatch/pkg/platform/sentinel"
)

// now pins every recency calculation in this suite.
var now = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

type MatchSuite struct {
	suite.Suite
	client *search.Memory
}

func TestMatchSuite(t *testing.T) {
	suite.Run(t, new(MatchSuite))
}

func (s *MatchSuite) SetupTest() {
	s.client = search.NewMemory()
}

func (s *MatchSuite) newMatch(p *person.Person) *Match {
	return New(p, s.client, 5, WithClock(func() time.Time { return now }))
}

func fullPerson() person.Person {
	return person.Person{
		Lastname: "Saalbrink",
		Initials: "P",
		Gender:   person.GenderMale,
		Address: person.Address{
			Postcode:    "1071XB",
			HouseNumber: 71,
		},
		Mobile:      "+31612345678",
		Landline:    "+31201234567",
		DateOfBirth: time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC),
		Email:       "p.saalbrink@example.nl",
		Date:        now.AddDate(0, -6, 0),
	}
}

func recordFor(p person.Person) search.Record {
	var r search.Record
	r.Details.Lastname = p.Lastname
	r.Details.Initials = p.Initials
	r.Details.Gender = string(p.Gender)
	r.Address.PostalCode = p.Address.Postcode
	r.Address.HouseNumber = p.Address.HouseNumber
	r.Address.HouseNumberExt = p.Address.HouseNumberExt
	r.Phone.Mobile = p.Mobile
	r.Phone.Number = p.Landline
	if !p.DateOfBirth.IsZero() {
		r.Birth.Date = p.DateOfBirth.Format("2006-01-02")
	}
	r.Contact.Email = p.Email
	if !p.Date.IsZero() {
		r.Date = p.Date.Format("2006-01-02")
	}
	r.Source = p.Source
	return r
}

func anyQuery() query.Query {
	return query.Query{Root: query.Bool{}}
}

func (s *MatchSuite) TestSelfMatchScoresEveryKey() {
	p := fullPerson()
	s.client.Seed(recordFor(p))

	result, err := s.newMatch(&p).Run(context.Background(), anyQuery(), 10)
	s.Require().NoError(err)
	s.ElementsMatch(AllKeys, result.Keys)
	s.Equal("A1", result.Grade)
}

func (s *MatchSuite) TestZeroHitsIsNoMatch() {
	p := fullPerson()
	m := s.newMatch(&p)

	_, err := m.Run(context.Background(), anyQuery(), 10)
	s.ErrorIs(err, sentinel.ErrNoMatch)
	s.Equal(StatusNoMatch, m.Status())
}

func (s *MatchSuite) TestNoSharedKeysIsNoMatch() {
	p := fullPerson()
	other := person.Person{
		Lastname: "Bakker",
		Initials: "Q",
		Gender:   person.GenderFemale,
		Address:  person.Address{Postcode: "9999ZZ", HouseNumber: 1},
		Date:     now.AddDate(-1, 0, 0),
	}
	s.client.Seed(recordFor(other))

	m := s.newMatch(&p)
	_, err := m.Run(context.Background(), anyQuery(), 10)
	s.ErrorIs(err, sentinel.ErrNoMatch)
	s.Equal(StatusNoMatch, m.Status())
}

func (s *MatchSuite) TestCompositeGainsMissingFields() {
	// Known person without extension and mobile; the corpus record has both.
	p := fullPerson()
	p.Address.HouseNumberExt = ""
	p.Mobile = ""

	candidate := fullPerson()
	candidate.Address.HouseNumberExt = "B"
	s.client.Seed(recordFor(candidate))

	result, err := s.newMatch(&p).Run(context.Background(), anyQuery(), 10)
	s.Require().NoError(err)
	s.Equal("B", result.Composite.Address.HouseNumberExt)
	s.Equal("+31612345678", result.Composite.Mobile)
	s.Contains([]string{"A", "B"}, result.Grade[:1])
}

func (s *MatchSuite) TestGradeLetterFollowsKeyCount() {
	grades := map[int]string{1: "D", 2: "C", 3: "B", 4: "A", 5: "A"}
	for count, letter := range grades {
		p := fullPerson()
		m := s.newMatch(&p)
		m.composite = p

		keys := AllKeys[:count]
		grade, err := m.grade(keys)
		s.Require().NoError(err)
		s.Equal(letter, grade[:1], "with %d keys", count)
	}
}

func (s *MatchSuite) TestGradeWithoutKeysIsDefensiveError() {
	p := fullPerson()
	m := s.newMatch(&p)
	m.composite = p

	_, err := m.grade(nil)
	s.ErrorIs(err, sentinel.ErrMatch)
}

func (s *MatchSuite) TestRecencyDigit() {
	cases := map[int]string{0: "1", 2: "1", 3: "2", 8: "3", 11: "4", 30: "4"}
	for yearsAgo, digit := range cases {
		p := fullPerson()
		m := s.newMatch(&p)
		m.composite = p
		m.composite.Date = now.AddDate(-yearsAgo, 0, 0)
		s.Equal(digit, m.recencyDigit(), "record %d years old", yearsAgo)
	}

	s.Run("missing date scores worst", func() {
		p := fullPerson()
		m := s.newMatch(&p)
		m.composite = p
		m.composite.Date = time.Time{}
		s.Equal("4", m.recencyDigit())
	})
}

func (s *MatchSuite) TestMergeIdempotent() {
	cutoff := now.AddDate(-5, 0, 0)
	composite := fullPerson()
	merge(&composite, fullPerson(), cutoff)
	s.Equal(fullPerson(), composite)
}

func (s *MatchSuite) TestMergeNeverOverwritesOutsideFreshBranch() {
	cutoff := now.AddDate(-5, 0, 0)

	composite := fullPerson()
	stale := fullPerson()
	stale.Email = "old@example.nl"
	stale.Mobile = "+31699999999"
	stale.Date = now.AddDate(-8, 0, 0)

	merge(&composite, stale, cutoff)
	s.Equal(fullPerson().Email, composite.Email)
	s.Equal(fullPerson().Mobile, composite.Mobile)
}

func (s *MatchSuite) TestMergeFreshCandidateOverwrites() {
	cutoff := now.AddDate(-5, 0, 0)

	composite := fullPerson()
	fresh := fullPerson()
	fresh.Mobile = "+31687654321"
	fresh.Date = now.AddDate(0, -1, 0)

	merge(&composite, fresh, cutoff)
	s.Equal("+31687654321", composite.Mobile)
}

func (s *MatchSuite) TestMergeFamilyMemberContributesSharedFieldsOnly() {
	cutoff := now.AddDate(-5, 0, 0)

	composite := fullPerson()
	composite.Landline = ""
	composite.Middlename = ""

	sibling := fullPerson()
	sibling.Initials = "Q"
	sibling.Landline = "+31201111111"
	sibling.Middlename = "van"
	sibling.Email = "q.saalbrink@example.nl"
	sibling.DateOfBirth = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	sibling.Date = now.AddDate(0, -1, 0)

	merge(&composite, sibling, cutoff)
	s.Equal("+31201111111", composite.Landline)
	s.Equal("van", composite.Middlename)
	// Personal fields never cross household members.
	s.Equal(fullPerson().Email, composite.Email)
	s.Equal(fullPerson().DateOfBirth, composite.DateOfBirth)
	s.Equal("P", composite.Initials)
}

func (s *MatchSuite) TestCandidatesFoldMostRecentFirst() {
	p := fullPerson()

	older := fullPerson()
	older.Address.HouseNumberExt = "A"
	older.Date = now.AddDate(-7, 0, 0)

	newer := fullPerson()
	newer.Address.HouseNumberExt = "B"
	newer.Date = now.AddDate(0, -1, 0)

	// Seeded oldest first; the fold must still prefer the newest record.
	s.client.Seed(recordFor(older), recordFor(newer))

	result, err := s.newMatch(&p).Run(context.Background(), anyQuery(), 10)
	s.Require().NoError(err)
	s.Equal("B", result.Composite.Address.HouseNumberExt)
}
