package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sangkips/billing-api/internal/domain/entity"
	"go.uber.org/zap"
)

type fakeKeys struct {
	calls   atomic.Int32
	removed int64
	err     error
}

func (f *fakeKeys) GetByKey(context.Context, string, string) (*entity.IdempotencyKey, error) {
	return nil, nil
}

func (f *fakeKeys) Create(context.Context, *entity.IdempotencyKey) error { return nil }

func (f *fakeKeys) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	if now.Location() != time.UTC {
		return 0, errors.New("expected a UTC cutoff")
	}
	return f.removed, f.err
}

func TestReapIdempotencyKeys(t *testing.T) {
	repo := &fakeKeys{removed: 3}
	if n := ReapIdempotencyKeys(context.Background(), repo, zap.NewNop()); n != 3 {
		t.Fatalf("expected 3 removed, got %d", n)
	}

	repo = &fakeKeys{err: errors.New("db down")}
	if n := ReapIdempotencyKeys(context.Background(), repo, zap.NewNop()); n != 0 {
		t.Fatalf("expected 0 on failure, got %d", n)
	}
}

func TestScheduleIdempotencyReaper(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.ScheduleIdempotencyReaper("not a schedule", &fakeKeys{}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}

	repo := &fakeKeys{}
	if err := s.ScheduleIdempotencyReaper("@every 1s", repo); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for repo.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	if repo.calls.Load() == 0 {
		t.Fatal("expected the reaper to run")
	}
}
