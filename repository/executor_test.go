package repository

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWriteQueueOrdering(t *testing.T) {
	queue := newWriteQueue("test")
	defer queue.Close()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		queue.Submit(func() {
			order = append(order, i)
		})
	}
	queue.Flush()

	for i, got := range order {
		if got != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
	if len(order) != 10 {
		t.Fatalf("expected 10 tasks, ran %d", len(order))
	}
}

func TestWriteQueueSurvivesPanic(t *testing.T) {
	queue := newWriteQueue("test")
	defer queue.Close()

	var ran atomic.Bool
	queue.Submit(func() {
		panic("task blew up")
	})
	queue.Submit(func() {
		ran.Store(true)
	})
	queue.Flush()

	if !ran.Load() {
		t.Fatal("worker died after a panicking task")
	}
}

func TestWriteQueueDo(t *testing.T) {
	queue := newWriteQueue("test")
	defer queue.Close()

	done := false
	queue.Do(func() {
		done = true
	})
	// Do returns only after the task ran
	if !done {
		t.Fatal("Do returned before the task finished")
	}
}

func TestCallbackDispatcher(t *testing.T) {
	dispatcher := newCallbackDispatcher()
	defer dispatcher.Close()

	got := make(chan struct{})
	dispatcher.Dispatch(func() {
		close(got)
	})

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}
}
