package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// Poor man's job scheduling: each instance competes for a distributed lock
// and whoever holds it runs the business loop, so a job runs on exactly one
// instance at a time without a scheduler platform.

const defaultTimeout = time.Second * 3

type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	logger  *elog.Component
	biz     func(ctx context.Context) error
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// biz runs repeatedly while the lock is held. Cancelling ctx stops every loop.
	biz func(ctx context.Context) error,
	key string,
) *InfiniteLoop {
	return &InfiniteLoop{
		dclient: dclient,
		key:     key,
		logger:  elog.DefaultLogger.With(elog.String("key", key)),
		biz:     biz,
	}
}

// Run returns when ctx is cancelled.
func (l *InfiniteLoop) Run(ctx context.Context) {
	const interval = time.Minute
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, interval)
		if err != nil {
			l.logger.Error("failed to initialize distributed lock, retrying",
				elog.Any("err", err))
			time.Sleep(interval)
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		// Not holding the lock is fine whether another instance has it or the
		// attempt errored. Pause and try again.
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			l.logger.Warn("did not acquire distributed lock", elog.Any("err", err))
			time.Sleep(interval)
			continue
		}

		err = l.bizLoop(ctx, lock)
		// Either the refresh failed or ctx was cancelled.
		if err != nil {
			l.logger.Error("business loop exited", elog.FieldErr(err))
		}
		// Unlock under a fresh context, the original one may already be cancelled.
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // Background context on purpose, see above.
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("failed to release distributed lock", elog.Any("err", unErr))
		}
		err = ctx.Err()
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.logger.Info("job cancelled, exiting loop")
			return
		default:
			time.Sleep(interval)
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		err := l.biz(ctx)
		if err != nil {
			l.logger.Error("job execution failed", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to refresh distributed lock %w", err)
		}
	}
}
