package buffer

import (
	"reflect"
	"sync"
	"testing"
)

func TestBoundedQueuePushPull(t *testing.T) {
	q := NewBoundedQueue[int](2)
	closed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if ok := q.Push([]int{1, 2, 3, 4}); !ok {
			t.Error("push failed unexpectedly")
		}
		<-closed
		if ok := q.Push([]int{5}); ok {
			t.Error("push after exhausted should fail")
		}
	}()

	got := q.Pull(2)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("pull=%v, want [1 2]", got)
	}
	got = q.Pull(0)
	if !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("pull=%v, want [3 4]", got)
	}
	q.SetExhausted()
	close(closed)
	wg.Wait()

	if !q.IsExhausted() {
		t.Fatal("queue should be exhausted once drained")
	}
	if got := q.Pull(5); got != nil {
		t.Fatalf("pull on exhausted empty queue = %v, want nil", got)
	}
}

func TestBoundedQueueExhaustedNotReadyUntilDrained(t *testing.T) {
	q := NewBoundedQueue[int](4)
	q.Push([]int{1, 2})
	q.SetExhausted()
	if q.IsExhausted() {
		t.Fatal("queue with buffered data should not report exhausted yet")
	}
	got := q.Pull(0)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("pull=%v, want [1 2]", got)
	}
	if !q.IsExhausted() {
		t.Fatal("queue should report exhausted once drained")
	}
}

func TestBoundedQueueBlocksWhenFull(t *testing.T) {
	q := NewBoundedQueue[int](1)
	q.Push([]int{1})

	done := make(chan struct{})
	go func() {
		q.Push([]int{2})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("push should have blocked while full")
	default:
	}

	q.Pull(1)
	<-done
}
