package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunNowWithoutDatabase(t *testing.T) {
	svc := New(nil, nil)
	details, err := svc.RunNow(context.Background(), "noop", func(context.Context) (any, error) {
		return map[string]int{"removed": 2}, nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if details.(map[string]int)["removed"] != 2 {
		t.Fatalf("unexpected details %+v", details)
	}

	boom := errors.New("boom")
	if _, err := svc.RunNow(context.Background(), "noop", func(context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWorkerRunsEnqueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(nil, nil)
	svc.Start(ctx)

	done := make(chan string, 1)
	svc.Enqueue("hook", func(context.Context) (any, error) {
		done <- "ran"
		return nil, nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(nil, nil)
	var ran int32
	for i := 0; i < queueSize+5; i++ {
		svc.Enqueue("fill", func(context.Context) (any, error) {
			atomic.AddInt32(&ran, 1)
			return nil, nil
		})
	}
	if len(svc.queue) != queueSize {
		t.Fatalf("expected queue capped at %d, got %d", queueSize, len(svc.queue))
	}
}

func TestScheduleEnqueuesPeriodically(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(nil, nil)
	svc.Start(ctx)

	var runs int32
	svc.Schedule(ctx, 10*time.Millisecond, JobDraftSweep, func(context.Context) (any, error) {
		atomic.AddInt32(&runs, 1)
		return nil, nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&runs) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 scheduled runs, got %d", atomic.LoadInt32(&runs))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
