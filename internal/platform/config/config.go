package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"personmatch/pkg/platform/sentinel"
)

// Server captures process level configuration: listen address and the
// endpoints of every collaborator.
type Server struct {
	Addr string

	SearchURL   string
	SearchIndex string
	PhoneURL    string
	EmailURL    string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string
}

// Matching holds the tunables of the matching core. It is process-wide and
// last-writer-wins: configure before the first concurrent match, changes are
// not isolated from in-flight matches.
type Matching struct {
	// Alpha is the significance threshold below which a field combination
	// is sufficient to uniquely identify a person.
	Alpha float64

	// Population model: adults plus deceased persons still present in
	// records of the assumed age.
	AdultsCount    int
	YearlyDeceased int
	RecordAgeYears int

	// SearchSize caps the number of hits requested per person query.
	SearchSize int

	// MergeYears is the recency cutoff for the composite merge: candidates
	// at most this many years old may overwrite eligible fields.
	MergeYears int

	// MustHaveAddress restricts sufficient combinations to those carrying
	// an address or postcode field.
	MustHaveAddress bool

	// CleanEmail toggles validation of email addresses through the
	// external verification service.
	CleanEmail bool

	DefaultCountry    string
	ValidationTimeout time.Duration
}

// DefaultMatching returns the tunables as used in production.
func DefaultMatching() Matching {
	return Matching{
		Alpha:             0.05,
		AdultsCount:       14_000_000,
		YearlyDeceased:    151_885,
		RecordAgeYears:    20,
		SearchSize:        10,
		MergeYears:        5,
		MustHaveAddress:   false,
		CleanEmail:        true,
		DefaultCountry:    "NLD",
		ValidationTimeout: 5 * time.Second,
	}
}

// Validate rejects tunables the engine cannot work with.
func (m Matching) Validate() error {
	if m.Alpha <= 0 || m.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", sentinel.ErrConfiguration, m.Alpha)
	}
	if m.SearchSize < 1 {
		return fmt.Errorf("%w: search size must be positive", sentinel.ErrConfiguration)
	}
	if m.RecordAgeYears < 0 {
		return fmt.Errorf("%w: record age must not be negative", sentinel.ErrConfiguration)
	}
	return nil
}

// PopulationSize is the estimated number of persons the corpus can refer to:
// living adults plus the deceased still present in records.
func (m Matching) PopulationSize() float64 {
	return float64(m.AdultsCount + m.YearlyDeceased*m.RecordAgeYears)
}

// FromEnv builds Server and Matching configs from environment variables so
// main stays lean.
func FromEnv() (Server, Matching) {
	srv := Server{
		Addr:        envOr("PERSONMATCH_ADDR", ":8080"),
		SearchURL:   envOr("PERSONMATCH_SEARCH_URL", "http://localhost:9200"),
		SearchIndex: envOr("PERSONMATCH_SEARCH_INDEX", "person_data"),
		PhoneURL:    os.Getenv("PERSONMATCH_PHONE_URL"),
		EmailURL:    os.Getenv("PERSONMATCH_EMAIL_URL"),
		PostgresDSN: os.Getenv("PERSONMATCH_POSTGRES_DSN"),
		RedisURL:    os.Getenv("PERSONMATCH_REDIS_URL"),
		KafkaTopic:  envOr("PERSONMATCH_KAFKA_TOPIC", "personmatch.matches"),
	}
	if brokers := os.Getenv("PERSONMATCH_KAFKA_BROKERS"); brokers != "" {
		srv.KafkaBrokers = strings.Split(brokers, ",")
	}

	m := DefaultMatching()
	if v, err := strconv.ParseFloat(os.Getenv("PERSONMATCH_ALPHA"), 64); err == nil {
		m.Alpha = v
	}
	if v, err := strconv.Atoi(os.Getenv("PERSONMATCH_SEARCH_SIZE")); err == nil {
		m.SearchSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("PERSONMATCH_RECORD_AGE_YEARS")); err == nil {
		m.RecordAgeYears = v
	}
	if v, err := strconv.Atoi(os.Getenv("PERSONMATCH_MERGE_YEARS")); err == nil {
		m.MergeYears = v
	}
	if v := os.Getenv("PERSONMATCH_MUST_HAVE_ADDRESS"); v != "" {
		m.MustHaveAddress = v == "true"
	}
	if v := os.Getenv("PERSONMATCH_CLEAN_EMAIL"); v != "" {
		m.CleanEmail = v == "true"
	}
	return srv, m
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
