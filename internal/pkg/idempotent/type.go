package idempotent

import "context"

type IdempotencyService interface {
	// FirstTime marks key as seen and reports whether this was the first
	// sighting. A false result means the key was (probably) processed before.
	FirstTime(ctx context.Context, key string) (bool, error)
	MFirstTime(ctx context.Context, keys ...string) ([]bool, error)
	// Seen reports whether key was marked before, without marking it.
	// Callers that must not lose work on a crash check first and mark
	// only after the work succeeded.
	Seen(ctx context.Context, key string) (bool, error)
	MSeen(ctx context.Context, keys ...string) ([]bool, error)
}
