package ratelimit

import "golang.org/x/net/context"

//go:generate mockgen -source=./types.go -package=limitmocks -destination=./mocks/limiter.mock.go Limiter
type Limiter interface {
	// Limit reports whether the request identified by key should be rejected.
	Limit(ctx context.Context, key string) (bool, error)
}
