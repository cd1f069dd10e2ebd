package resource

import (
	"sync"
	"testing"
	"time"
)

func TestIDQueuePushTryPopFIFO(t *testing.T) {
	var q idQueue
	q.push(1)
	q.push(2)
	q.push(3)

	for _, want := range []ID{1, 2, 3} {
		got, ok := q.tryPop()
		if !ok || got != want {
			t.Fatalf("tryPop() = (%v, %v), want (%v, true)", got, ok, want)
		}
	}
	if _, ok := q.tryPop(); ok {
		t.Errorf("tryPop on an empty queue should report ok=false")
	}
}

func TestSyncEventWaitBlocksUntilSignal(t *testing.T) {
	e := newSyncEvent()
	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Wait returned before Signal was ever called")
	case <-time.After(20 * time.Millisecond):
	}

	e.Signal()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait did not return after Signal")
	}
}

func TestSyncEventSignalBeforeWaitIsNotLost(t *testing.T) {
	e := newSyncEvent()
	e.Signal()

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("a Signal issued before Wait should still satisfy the next Wait")
	}
}

func TestSyncEventBroadcastWakesAllWaiters(t *testing.T) {
	e := newSyncEvent()
	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			e.Wait()
		}()
	}
	time.Sleep(20 * time.Millisecond)
	e.Signal()

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatalf("not all waiters woke after a single Signal")
	}
}
