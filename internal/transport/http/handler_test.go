package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"personmatch/internal/match"
	"personmatch/internal/person"
	"personmatch/internal/service"
	"personmatch/internal/transport/http/mocks"
	"personmatch/pkg/platform/sentinel"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = New(s.service, logger).Router()
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestMatch() {
	s.Run("successful match returns the graded composite", func() {
		composite := person.Person{
			Lastname: "Saalbrink",
			Initials: "P",
			Address:  person.Address{Postcode: "1071XB", HouseNumber: 71, HouseNumberExt: "B"},
			Mobile:   "+31612345678",
		}
		s.service.EXPECT().Match(gomock.Any(), gomock.Any()).Return(service.Result{
			Person: composite,
			Grade:  "B1",
			Keys:   []match.Key{match.KeyName, match.KeyAddress, match.KeyFamily},
		}, nil)

		rec := s.post("/v1/match", MatchRequest{
			Lastname:    "Saalbrink",
			Initials:    "P",
			Postcode:    "1071XB",
			HouseNumber: "71",
		})

		s.Equal(http.StatusOK, rec.Code)
		var resp MatchResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("B1", resp.Grade)
		s.Equal("B", resp.Person.HouseNumberExt)
		s.Len(resp.Keys, 3)
	})

	s.Run("no match maps to 404", func() {
		s.service.EXPECT().Match(gomock.Any(), gomock.Any()).Return(service.Result{}, sentinel.ErrNoMatch)
		rec := s.post("/v1/match", MatchRequest{Lastname: "Nobody", Initials: "X"})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("no sufficient combination maps to 422", func() {
		s.service.EXPECT().Match(gomock.Any(), gomock.Any()).Return(service.Result{}, sentinel.ErrNoSufficientCombination)
		rec := s.post("/v1/match", MatchRequest{Lastname: "Jansen", Initials: "J"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("configuration error maps to 400", func() {
		s.service.EXPECT().Match(gomock.Any(), gomock.Any()).Return(service.Result{}, sentinel.ErrConfiguration)
		rec := s.post("/v1/match", MatchRequest{Lastname: "Jansen", Initials: "J", Country: "BE"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed body maps to 400 without a service call", func() {
		s.service.EXPECT().Match(gomock.Any(), gomock.Any()).Times(0)
		req := httptest.NewRequest(http.MethodPost, "/v1/match", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestMatchRequestConversion() {
	req := MatchRequest{
		Lastname:    "Jansen",
		HouseNumber: "12-B",
		DateOfBirth: "1992-03-14",
		Date:        "1900-01-01",
	}
	p := req.Person()
	s.Equal(12, p.Address.HouseNumber)
	s.Equal(1992, p.DateOfBirth.Year())
	s.True(p.Date.IsZero(), "sentinel date must not survive conversion")
}

func (s *HandlerSuite) TestUpgrade() {
	s.Run("successful upgrade returns the enriched person", func() {
		enriched := person.Person{
			Lastname: "Saalbrink",
			Address:  person.Address{Postcode: "1071XB", HouseNumber: 71, HouseNumberExt: "B"},
		}
		s.service.EXPECT().Upgrade(gomock.Any(), person.Address{
			Postcode:    "1071XB",
			HouseNumber: 71,
		}).Return(enriched, nil)

		rec := s.post("/v1/upgrade", UpgradeRequest{Postcode: "1071XB", HouseNumber: "71"})

		s.Equal(http.StatusOK, rec.Code)
		var resp PersonResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("Saalbrink", resp.Lastname)
	})

	s.Run("unknown address maps to 404", func() {
		s.service.EXPECT().Upgrade(gomock.Any(), gomock.Any()).Return(person.Person{}, sentinel.ErrNoMatch)
		rec := s.post("/v1/upgrade", UpgradeRequest{Postcode: "9999ZZ", HouseNumber: "1"})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}
