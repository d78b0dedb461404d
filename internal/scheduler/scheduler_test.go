// SPDX-License-Identifier: MPL-2.0

package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type task struct {
	name     string
	priority float64
}

func byPriority(t task) float64 { return t.priority }

func TestPartition(t *testing.T) {
	t.Parallel()

	items := []task{{"d", 0}, {"b", 10}, {"a", 30}, {"c", 10}, {"e", -1}}
	groups := Partition(items, byPriority)

	var prios []float64
	for _, g := range groups {
		prios = append(prios, g.Priority)
	}
	if !slices.Equal(prios, []float64{30, 10, 0, -1}) {
		t.Fatalf("priorities = %v", prios)
	}
	if got := groups[1].Items; len(got) != 2 || got[0].name != "b" || got[1].name != "c" {
		t.Errorf("priority 10 group = %v, want [b c] in input order", got)
	}
	if Partition[task](nil, byPriority) != nil {
		t.Error("Partition(nil) should be empty")
	}
}

func TestRun_PriorityOrdering(t *testing.T) {
	t.Parallel()

	items := []task{{"p30", 30}, {"p10a", 10}, {"p10b", 10}, {"p0", 0}}

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	err := Run(t.Context(), Partition(items, byPriority), Options{Concurrency: 4}, func(_ context.Context, it task) error {
		record("start " + it.name)
		time.Sleep(5 * time.Millisecond)
		record("end " + it.name)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	pos := func(e string) int { return slices.Index(events, e) }
	if pos("end p30") > pos("start p10a") || pos("end p30") > pos("start p10b") {
		t.Errorf("priority 30 must finish before priority 10 starts: %v", events)
	}
	for _, n := range []string{"end p10a", "end p10b"} {
		if pos(n) > pos("start p0") {
			t.Errorf("%s must precede start p0: %v", n, events)
		}
	}
}

func TestRun_GroupRunsConcurrently(t *testing.T) {
	t.Parallel()

	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	items := make([]task, n)
	for i := range items {
		items[i] = task{name: "t", priority: 1}
	}

	done := make(chan error, 1)
	go func() {
		done <- Run(t.Context(), Partition(items, byPriority), Options{Concurrency: n}, func(context.Context, task) error {
			started.Done()
			<-release
			return nil
		})
	}()

	// Every task must be able to start before any of them finishes.
	started.Wait()
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	t.Parallel()

	items := make([]task, 20)
	var running, peak atomic.Int32
	err := Run(t.Context(), Partition(items, byPriority), Options{Concurrency: 3}, func(context.Context, task) error {
		cur := running.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestRun_FailureDrainsGroupAndStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	items := []task{{"ok", 10}, {"bad", 10}, {"also-bad", 10}, {"later", 0}}

	var ran sync.Map
	err := Run(t.Context(), Partition(items, byPriority), Options{Concurrency: 1}, func(_ context.Context, it task) error {
		ran.Store(it.name, true)
		if it.name != "ok" && it.name != "later" {
			return boom
		}
		return nil
	})

	var gf *GroupFailedError
	if !errors.As(err, &gf) {
		t.Fatalf("expected GroupFailedError, got %v", err)
	}
	if gf.Priority != 10 || gf.Failed != 2 || gf.Total != 3 {
		t.Errorf("GroupFailedError = %+v", gf)
	}
	if !errors.Is(err, ErrGroupFailed) || !errors.Is(err, boom) {
		t.Errorf("error should match ErrGroupFailed and the task error: %v", err)
	}
	for _, n := range []string{"ok", "bad", "also-bad"} {
		if _, ok := ran.Load(n); !ok {
			t.Errorf("task %s did not run; the failing group must drain", n)
		}
	}
	if _, ok := ran.Load("later"); ok {
		t.Error("the next group must not start after a failure")
	}
}

func TestRun_CancellationBetweenGroups(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	items := []task{{"first", 1}, {"second", 1}, {"next", 0}}
	var taskCtxErr atomic.Value
	var ranNext atomic.Bool

	err := Run(ctx, Partition(items, byPriority), Options{Concurrency: 1}, func(tctx context.Context, it task) error {
		switch it.name {
		case "first":
			cancel()
		case "second":
			if e := tctx.Err(); e != nil {
				taskCtxErr.Store(e)
			}
		case "next":
			ranNext.Store(true)
		}
		return nil
	})

	if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want ErrCanceled wrapping context.Canceled", err)
	}
	if v := taskCtxErr.Load(); v != nil {
		t.Errorf("task context was canceled mid-group: %v", v)
	}
	if ranNext.Load() {
		t.Error("group after cancellation must not run")
	}
}

func TestRun_OnGroup(t *testing.T) {
	t.Parallel()

	var seen []float64
	items := []task{{"a", 2}, {"b", 1}, {"c", 1}}
	err := Run(t.Context(), Partition(items, byPriority), Options{
		OnGroup: func(p float64, size int) {
			seen = append(seen, p, float64(size))
		},
	}, func(context.Context, task) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seen, []float64{2, 1, 1, 2}) {
		t.Errorf("OnGroup calls = %v", seen)
	}
}
