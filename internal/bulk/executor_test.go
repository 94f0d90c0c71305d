package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPartialFailure(t *testing.T) {
	items := []string{"a", "b", "c"}
	errDup := errors.New("duplicate")

	summary := Run(context.Background(), items, 2, func(ctx context.Context, item string) (string, error) {
		if item == "b" {
			return "", errDup
		}
		return "id-" + item, nil
	})

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2/1", summary.Succeeded, summary.Failed)
	}
	if len(summary.Outcomes) != len(items) {
		t.Fatalf("len(Outcomes) = %d, want %d", len(summary.Outcomes), len(items))
	}
	if !summary.Outcomes[0].Succeeded() || summary.Outcomes[1].Succeeded() || !summary.Outcomes[2].Succeeded() {
		t.Errorf("outcome pattern = [%v %v %v], want [ok fail ok]",
			summary.Outcomes[0].Err, summary.Outcomes[1].Err, summary.Outcomes[2].Err)
	}
	if !errors.Is(summary.Outcomes[1].Err, errDup) {
		t.Errorf("Outcomes[1].Err = %v", summary.Outcomes[1].Err)
	}
	if summary.Outcomes[2].Result != "id-c" {
		t.Errorf("Outcomes[2].Result = %q", summary.Outcomes[2].Result)
	}
}

func TestRunOrderPreserved(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	summary := Run(context.Background(), items, 8, func(ctx context.Context, item int) (int, error) {
		// Uneven completion order must not disturb outcome order.
		time.Sleep(time.Duration(item%7) * time.Millisecond)
		return item * 10, nil
	})

	for i, o := range summary.Outcomes {
		if o.Result != i*10 {
			t.Fatalf("Outcomes[%d].Result = %d, want %d", i, o.Result, i*10)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32

	items := make([]int, 40)
	Run(context.Background(), items, limit, func(ctx context.Context, item int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if p := peak.Load(); p > limit {
		t.Errorf("peak in-flight = %d, exceeds limit %d", p, limit)
	}
}

func TestRunAllFail(t *testing.T) {
	items := []int{1, 2, 3, 4}

	summary := Run(context.Background(), items, 2, func(ctx context.Context, item int) (int, error) {
		return 0, fmt.Errorf("record %d rejected", item)
	})

	if summary.Failed != 4 || summary.Succeeded != 0 {
		t.Errorf("counts = %d/%d, want 0/4", summary.Succeeded, summary.Failed)
	}
	if len(summary.Outcomes) != 4 {
		t.Errorf("len(Outcomes) = %d, want 4", len(summary.Outcomes))
	}
}

func TestRunEmpty(t *testing.T) {
	summary := Run(context.Background(), nil, 2, func(ctx context.Context, item int) (int, error) {
		t.Error("commit called for empty batch")
		return 0, nil
	})

	if len(summary.Outcomes) != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}

func TestRunPanicSettlesAsFailure(t *testing.T) {
	items := []int{1, 2, 3}

	summary := Run(context.Background(), items, 2, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			panic("boom")
		}
		return item, nil
	})

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2/1", summary.Succeeded, summary.Failed)
	}
	if summary.Outcomes[1].Err == nil {
		t.Error("panicked commit did not settle as failure")
	}
}

func TestRunDetachedFromCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // abort before submission; issued commits must still run

	summary := Run(ctx, []int{1, 2}, 2, func(ctx context.Context, item int) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return item, nil
	})

	if summary.Failed != 0 {
		t.Errorf("commits observed caller cancellation: %+v", summary.Outcomes)
	}
}
