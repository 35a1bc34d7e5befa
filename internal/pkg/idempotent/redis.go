package idempotent

import (
	"context"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// BloomIdempotencyService deduplicates keys with a RedisBloom filter.
// False positives drop a fresh key at the configured error rate, which is
// acceptable for suppressing duplicate notification events.
type BloomIdempotencyService struct {
	client     redis.Cmdable
	filterName string
	capacity   uint64
	errorRate  float64
}

func NewBloomService(client redis.Cmdable, filterName string,
	capacity uint64, errorRate float64,
) *BloomIdempotencyService {
	return &BloomIdempotencyService{
		client:     client,
		filterName: filterName,
		capacity:   capacity,
		errorRate:  errorRate,
	}
}

// Reserve sizes the filter ahead of first use. RedisBloom auto-creates
// filters on BF.ADD, so failure here only costs the tuned error rate.
func (s *BloomIdempotencyService) Reserve(ctx context.Context) error {
	err := s.client.BFReserve(ctx, s.filterName, s.errorRate, int64(s.capacity)).Err()
	if err != nil && err.Error() == "ERR item exists" {
		return nil
	}
	return err
}

func (s *BloomIdempotencyService) FirstTime(ctx context.Context, key string) (bool, error) {
	// BF.ADD returns 1 when the item was not present.
	return s.client.BFAdd(ctx, s.filterName, key).Result()
}

func (s *BloomIdempotencyService) MFirstTime(ctx context.Context, keys ...string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, errors.New("empty keys")
	}
	res := s.client.BFMAdd(ctx, s.filterName, slice.Map(keys, func(_ int, src string) any {
		return src
	})...)
	return res.Result()
}

func (s *BloomIdempotencyService) Seen(ctx context.Context, key string) (bool, error) {
	return s.client.BFExists(ctx, s.filterName, key).Result()
}

func (s *BloomIdempotencyService) MSeen(ctx context.Context, keys ...string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, errors.New("empty keys")
	}
	res := s.client.BFMExists(ctx, s.filterName, slice.Map(keys, func(_ int, src string) any {
		return src
	})...)
	return res.Result()
}
