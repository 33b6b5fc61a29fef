//go:build integration

package probability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personmatch/internal/probability"
	"personmatch/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *probability.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = probability.NewRedisCache(s.redis.Client, time.Minute, nil)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	combos := []probability.Combination{
		{
			Base:        probability.Base{Lastname: "Jansen", Initials: "P", Fuzzy: true},
			Fields:      []probability.Field{probability.FieldDateOfBirth, probability.FieldAddress},
			Probability: 0.000012,
		},
		{
			Base:        probability.Base{Lastname: "Saalbrink"},
			Probability: 0.003,
		},
	}

	s.cache.Set(ctx, "Jansen|P", combos)

	got, ok := s.cache.Get(ctx, "Jansen|P")
	s.True(ok)
	s.Equal(combos, got)
}

func (s *RedisCacheSuite) TestMissingKey() {
	_, ok := s.cache.Get(context.Background(), "unknown")
	s.False(ok)
}
