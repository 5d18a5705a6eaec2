package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestCoalescerKeepsLastWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCoalescer(20 * time.Millisecond)
	var (
		mu      sync.Mutex
		written []string
	)
	write := func(v string) WriteFunc {
		return func(context.Context) error {
			mu.Lock()
			written = append(written, v)
			mu.Unlock()
			return nil
		}
	}

	first := c.Submit(context.Background(), "notes:1", write("a"))
	second := c.Submit(context.Background(), "notes:1", write("ab"))
	third := c.Submit(context.Background(), "notes:1", write("abc"))

	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first: expected ErrSuperseded, got %v", err)
	}
	if err := <-second; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("second: expected ErrSuperseded, got %v", err)
	}
	if err := <-third; err != nil {
		t.Fatalf("third: %v", err)
	}
	c.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(written) != 1 || written[0] != "abc" {
		t.Fatalf("written = %v, want [abc]", written)
	}
}

func TestCoalescerKeysAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCoalescer(10 * time.Millisecond)
	var n atomic.Int32
	inc := func(context.Context) error { n.Add(1); return nil }

	a := c.Submit(context.Background(), "a", inc)
	b := c.Submit(context.Background(), "b", inc)
	if err := <-a; err != nil {
		t.Fatal(err)
	}
	if err := <-b; err != nil {
		t.Fatal(err)
	}
	c.Flush()
	if got := n.Load(); got != 2 {
		t.Fatalf("writes = %d, want 2", got)
	}
}

func TestCoalescerWritesForKeyNeverOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCoalescer(time.Millisecond)
	var active, maxActive atomic.Int32
	slow := func(context.Context) error {
		cur := active.Add(1)
		for {
			m := maxActive.Load()
			if cur <= m || maxActive.CompareAndSwap(m, cur) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	first := c.Submit(context.Background(), "k", slow)
	time.Sleep(5 * time.Millisecond)
	second := c.Submit(context.Background(), "k", slow)
	for _, ch := range []<-chan error{first, second} {
		if err := <-ch; err != nil && !errors.Is(err, ErrSuperseded) {
			t.Fatal(err)
		}
	}
	c.Flush()
	if got := maxActive.Load(); got != 1 {
		t.Fatalf("max concurrent writes for one key = %d, want 1", got)
	}
}

func TestCoalescerFlushRunsPendingWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCoalescer(time.Hour)
	ran := make(chan struct{}, 1)
	done := c.Submit(context.Background(), "k", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	if c.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", c.Pending())
	}

	c.Flush()
	select {
	case <-ran:
	default:
		t.Fatalf("flush did not run the pending write")
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// After Flush writes run without waiting for the delay.
	if err := <-c.Submit(context.Background(), "k", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	c.Flush()
}

func TestCoalescerIgnoresCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCoalescer(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := c.Submit(ctx, "k", func(ctx context.Context) error { return ctx.Err() })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("write saw cancellation: %v", err)
	}
	c.Flush()
}
