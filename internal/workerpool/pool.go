package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/semaphore"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
)

// Pool bounds how many answer generations run at once. Submissions beyond the
// limit block in Do until a slot frees, which pushes backpressure onto the
// websocket sessions instead of piling up goroutines.
type Pool struct {
	log *logger.Logger
	sem *semaphore.Weighted
}

func New(log *logger.Logger, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		log: log.With("component", "WorkerPool"),
		sem: semaphore.NewWeighted(int64(concurrency)),
	}
}

// Do runs fn on a pool slot and waits for it to finish. Acquisition respects
// ctx cancellation; a panic inside fn is recovered and returned as an error
// so one bad turn cannot take down the process.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker slot: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("Recovered panic in worker", "panic", r, "stack", string(debug.Stack()))
				done <- fmt.Errorf("worker panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
