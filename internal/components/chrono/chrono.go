package chrono

import (
	"context"
	"time"
)

// API is how anything that waits or reads the clock should get at time,
// tests swap it out to avoid real sleeps.
type API interface {
	Now() time.Time
	// Sleep blocks for `d` or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

func (StandardImpl) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakeImpl never actually sleeps, it only records requested durations and
// advances its own clock by them.
type FakeImpl struct {
	Current time.Time
	Slept   []time.Duration
}

func (f *FakeImpl) Now() time.Time {
	return f.Current
}

func (f *FakeImpl) Sleep(ctx context.Context, d time.Duration) error {
	f.Slept = append(f.Slept, d)
	f.Current = f.Current.Add(d)
	return ctx.Err()
}
