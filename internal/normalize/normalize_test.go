package normalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personmatch/internal/names"
	"personmatch/internal/person"
	"personmatch/internal/platform/config"
	"personmatch/pkg/platform/sentinel"
)

type fakePhoneClient struct {
	results map[string]PhoneResult
	err     error
}

func (f *fakePhoneClient) Validate(_ context.Context, number, _ string) (PhoneResult, error) {
	if f.err != nil {
		return PhoneResult{}, f.err
	}
	return f.results[number], nil
}

type fakeEmailClient struct {
	result EmailResult
	err    error
	calls  int
}

func (f *fakeEmailClient) Validate(_ context.Context, _ string) (EmailResult, error) {
	f.calls++
	if f.err != nil {
		return EmailResult{}, f.err
	}
	return f.result, nil
}

type NormalizerSuite struct {
	suite.Suite
	stats *names.Statistics
	cfg   config.Matching
	phone *fakePhoneClient
	email *fakeEmailClient
}

func TestNormalizerSuite(t *testing.T) {
	suite.Run(t, new(NormalizerSuite))
}

func (s *NormalizerSuite) SetupTest() {
	store := names.NewMemoryStore().
		SeedAffixes("van", "de", "der", "van der").
		SeedTitles("msc", "phd")
	s.stats = names.New(store)
	s.cfg = config.DefaultMatching()
	s.phone = &fakePhoneClient{results: map[string]PhoneResult{}}
	s.email = &fakeEmailClient{}
}

func (s *NormalizerSuite) normalizer() *Normalizer {
	return New(s.stats, s.phone, s.email, s.cfg, nil)
}

func (s *NormalizerSuite) TestCountryGate() {
	ctx := context.Background()

	s.Run("empty country takes the default", func() {
		p := person.Person{Address: person.Address{}}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Equal("NLD", p.Address.Country)
	})

	s.Run("supported spellings pass", func() {
		for _, c := range []string{"Nederland", "netherlands", "NL", "nld"} {
			p := person.Person{Address: person.Address{Country: c}}
			s.NoError(s.normalizer().Normalize(ctx, &p))
		}
	})

	s.Run("unsupported country is fatal", func() {
		p := person.Person{Address: person.Address{Country: "BE"}}
		err := s.normalizer().Normalize(ctx, &p)
		s.ErrorIs(err, sentinel.ErrConfiguration)
	})
}

func (s *NormalizerSuite) TestDefaultDateDiscarded() {
	ctx := context.Background()
	p := person.Person{
		Date:        person.DefaultDate,
		DateOfBirth: person.DefaultDate,
	}
	s.NoError(s.normalizer().Normalize(ctx, &p))
	s.True(p.Date.IsZero())
	s.True(p.DateOfBirth.IsZero())
}

func (s *NormalizerSuite) TestGender() {
	ctx := context.Background()
	cases := map[string]person.Gender{
		"M":     person.GenderMale,
		"man":   person.GenderMale,
		"V":     person.GenderFemale,
		"Vrouw": person.GenderFemale,
		"x":     person.GenderUnknown,
		"":      person.GenderUnknown,
	}
	for raw, want := range cases {
		p := person.Person{Gender: person.Gender(raw)}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Equal(want, p.Gender, "raw gender %q", raw)
	}
}

func (s *NormalizerSuite) TestLastname() {
	ctx := context.Background()
	cases := map[string]string{
		"van der Berg":  "Berg",
		"JANSEN":        "Jansen",
		"Smit-Jansen":   "Smit Jansen",
		"Smït":     "Smit",
		"de Vries MSc":  "Vries",
		"Jansen   Berg": "Jansen Berg",
		"Jansen B":      "Jansen",
		"O'Neill":       "Oneill",
	}
	for raw, want := range cases {
		p := person.Person{Lastname: raw}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Equal(want, p.Lastname, "raw lastname %q", raw)
	}
}

func (s *NormalizerSuite) TestInitials() {
	s.Equal("PJ", Initials("p.j."))
	s.Equal("A", Initials("ä"))
	s.Equal("", Initials("123"))
}

func (s *NormalizerSuite) TestHouseNumber() {
	s.Equal(12, HouseNumber("12"))
	s.Equal(12, HouseNumber("12/2"))
	s.Equal(12, HouseNumber("12-B"))
	s.Equal(12, HouseNumber("nr 12"))
	s.Equal(0, HouseNumber("geen"))
}

func (s *NormalizerSuite) TestExtension() {
	s.Equal("B", Extension("b"))
	s.Equal("2", Extension("hs2"))
	s.Equal("12A", Extension("bis-12a"))
	s.Equal("", Extension("--"))
}

func (s *NormalizerSuite) TestPostcode() {
	s.Equal("1071XB", Postcode("1071 xb"))
	s.Equal("", Postcode("071XB"))
	s.Equal("", Postcode("0171XB"))
	s.Equal("", Postcode("1071XBX"))
}

func (s *NormalizerSuite) TestParseDate() {
	t1, ok := ParseDate("1992-03-14")
	s.True(ok)
	s.Equal(time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC), t1)

	t2, ok := ParseDate("14-03-1992")
	s.True(ok)
	s.Equal(t1, t2)

	t3, ok := ParseDate("1992-03-14 00:00:00")
	s.True(ok)
	s.Equal(t1, t3)

	s.Run("sentinel date reports unset", func() {
		_, ok := ParseDate("1900-01-01")
		s.False(ok)
	})

	s.Run("garbage reports unset", func() {
		_, ok := ParseDate("not a date")
		s.False(ok)
	})
}

func (s *NormalizerSuite) TestPhoneRecategorization() {
	ctx := context.Background()
	s.phone.results["0612345678"] = PhoneResult{Valid: true, Number: "+31612345678", Type: PhoneTypeMobile}
	s.phone.results["0201234567"] = PhoneResult{Valid: true, Number: "+31201234567", Type: PhoneTypeLandline}

	s.Run("numbers move to the field their type says", func() {
		// The mobile number arrives in the landline field and vice versa.
		p := person.Person{Mobile: "0201234567", Landline: "0612345678"}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Equal("+31612345678", p.Mobile)
		s.Equal("+31201234567", p.Landline)
	})

	s.Run("invalid numbers drop", func() {
		p := person.Person{Mobile: "12"}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Empty(p.Mobile)
	})

	s.Run("service failure drops the numbers without failing", func() {
		phone := &fakePhoneClient{err: errors.New("window closed")}
		n := New(s.stats, phone, s.email, s.cfg, nil)
		p := person.Person{Mobile: "0612345678"}
		s.NoError(n.Normalize(ctx, &p))
		s.Empty(p.Mobile)
	})
}

func (s *NormalizerSuite) TestEmailValidation() {
	ctx := context.Background()

	s.Run("valid email is canonicalized", func() {
		s.email.result = EmailResult{Valid: true, Address: "p.jansen@example.nl"}
		p := person.Person{Email: "P.Jansen@Example.nl "}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Equal("p.jansen@example.nl", p.Email)
	})

	s.Run("invalid email drops", func() {
		s.email.result = EmailResult{Valid: false}
		p := person.Person{Email: "nope@nope"}
		s.NoError(s.normalizer().Normalize(ctx, &p))
		s.Empty(p.Email)
	})

	s.Run("toggle off skips the service", func() {
		cfg := s.cfg
		cfg.CleanEmail = false
		email := &fakeEmailClient{}
		n := New(s.stats, s.phone, email, cfg, nil)
		p := person.Person{Email: "keep@example.nl"}
		s.NoError(n.Normalize(ctx, &p))
		s.Equal("keep@example.nl", p.Email)
		s.Zero(email.calls)
	})
}
