package parallel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	tasks := []Task[int]{
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
		func(context.Context) (int, error) { return 3, nil },
	}

	results, err := Run(context.Background(), tasks, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.OK() {
			t.Errorf("task %d should be OK", i)
		}
		if r.Value != i+1 || r.Index != i {
			t.Errorf("result %d out of order: %+v", i, r)
		}
	}
}

func TestRun_WithErrors(t *testing.T) {
	tasks := []Task[string]{
		func(context.Context) (string, error) { return "ok", nil },
		func(context.Context) (string, error) { return "", fmt.Errorf("simulated failure") },
		func(context.Context) (string, error) { return "also ok", nil },
	}

	results, err := Run(context.Background(), tasks, 4)
	if err != nil {
		t.Fatalf("task failure must not fail the run: %v", err)
	}
	if !results[0].OK() || !results[2].OK() {
		t.Error("siblings of a failing task should succeed")
	}
	if results[1].OK() || results[1].Err == nil {
		t.Error("second task should have failed")
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	tasks := make([]Task[struct{}], 10)
	for i := range tasks {
		tasks[i] = func(context.Context) (struct{}, error) {
			c := atomic.AddInt64(&current, 1)
			for {
				old := atomic.LoadInt64(&maxConcurrent)
				if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return struct{}{}, nil
		}
	}

	results, _ := Run(context.Background(), tasks, 2)

	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	tasks := []Task[int]{
		func(context.Context) (int, error) { return 0, nil },
	}

	// Should not panic with 0 concurrency
	results, _ := Run(context.Background(), tasks, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	tasks := []Task[int]{
		func(context.Context) (int, error) { atomic.AddInt64(&ran, 1); return 0, nil },
		func(context.Context) (int, error) { atomic.AddInt64(&ran, 1); return 0, nil },
	}

	results, err := Run(ctx, tasks, 1)
	if err == nil {
		t.Fatal("expected context error")
	}
	if ran != 0 {
		t.Errorf("no task should start after cancellation, %d ran", ran)
	}
	for _, r := range results {
		if r.OK() {
			t.Error("skipped tasks should carry the context error")
		}
	}
}

func TestRun_TimingTracked(t *testing.T) {
	tasks := []Task[int]{
		func(context.Context) (int, error) {
			time.Sleep(30 * time.Millisecond)
			return 0, nil
		},
	}

	results, _ := Run(context.Background(), tasks, 1)
	if results[0].Elapsed < 30*time.Millisecond {
		t.Errorf("expected elapsed >= 30ms, got %v", results[0].Elapsed)
	}
}
