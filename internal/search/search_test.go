package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personmatch/internal/person"
	"personmatch/internal/query"
)

type SearchSuite struct {
	suite.Suite
}

func TestSearchSuite(t *testing.T) {
	suite.Run(t, new(SearchSuite))
}

func sampleRecord() Record {
	var r Record
	r.Details.Lastname = "Saalbrink"
	r.Details.Initials = "P"
	r.Details.Gender = "M"
	r.Address.AddressID = "1071XB 71 B"
	r.Address.PostalCode = "1071XB"
	r.Address.HouseNumber = 71
	r.Address.HouseNumberExt = "B"
	r.Address.Street = "Museumstraat"
	r.Address.City = "Amsterdam"
	r.Address.Country = "NLD"
	r.Phone.Mobile = "+31612345678"
	r.Phone.Number = "+31201234567"
	r.Birth.Date = "1992-03-14"
	r.Contact.Email = "p.saalbrink@example.nl"
	r.Date = "2024-06-01"
	r.Source = "crm"
	return r
}

func (s *SearchSuite) TestRecordPerson() {
	p := sampleRecord().Person()

	s.Equal("Saalbrink", p.Lastname)
	s.Equal("P", p.Initials)
	s.Equal(person.GenderMale, p.Gender)
	s.Equal("1071XB", p.Address.Postcode)
	s.Equal(71, p.Address.HouseNumber)
	s.Equal("B", p.Address.HouseNumberExt)
	s.Equal("+31612345678", p.Mobile)
	s.Equal("+31201234567", p.Landline)
	s.Equal(time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC), p.DateOfBirth)
	s.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), p.Date)
	s.Equal("crm", p.Source)
}

func (s *SearchSuite) TestRecordPersonSentinelDates() {
	r := sampleRecord()
	r.Birth.Date = "1900-01-01"
	r.Date = ""

	p := r.Person()
	s.True(p.DateOfBirth.IsZero())
	s.True(p.Date.IsZero())
}

func (s *SearchSuite) TestMemoryClient() {
	ctx := context.Background()
	client := NewMemory().Seed(sampleRecord(), sampleRecord())

	q := query.Query{Root: query.Term{Field: "contact.email", Value: "p@example.nl"}}
	records, err := client.Search(ctx, q, 1)
	s.NoError(err)
	s.Len(records, 1)
	s.Equal(q, client.LastQuery)
	s.Equal(1, client.LastSize)
}

func (s *SearchSuite) TestHTTPClient() {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		s.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"hits": []any{map[string]any{"_source": sampleRecord()}},
			},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "person_data")
	q := query.Query{Root: query.Term{Field: "contact.email", Value: "p@example.nl"}}

	records, err := client.Search(context.Background(), q, 5)
	s.Require().NoError(err)
	s.Len(records, 1)
	s.Equal("Saalbrink", records[0].Details.Lastname)
	s.Equal("/person_data/_search", gotPath)
	s.Equal(float64(5), gotBody["size"])
}

func (s *SearchSuite) TestHTTPClientErrorStatus() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "person_data")
	_, err := client.Search(context.Background(), query.Query{Root: query.Bool{}}, 1)
	s.ErrorContains(err, "status 502")
}
