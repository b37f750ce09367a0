package concurrency_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/maikeriva/asyncrtos-websocket-client/internal/concurrency"
)

func TestSubmitRunsTasksInOrder(t *testing.T) {
	var order []int
	done := make(chan struct{})

	d := concurrency.NewDispatcher(func() {}, func() {})
	d.Start()
	defer d.Stop()

	for i := 0; i < 5; i++ {
		i := i
		d.Submit(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete in time")
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want 0..4 in order", order)
		}
	}
}

func TestArmPollFiresRepeatedly(t *testing.T) {
	var ticks int32
	d := concurrency.NewDispatcher(func() {
		atomic.AddInt32(&ticks, 1)
	}, func() {})
	d.Start()
	defer d.Stop()

	d.Submit(func() { d.ArmPoll(5 * time.Millisecond) })

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&ticks) < 3 {
		t.Fatalf("poll tick fired %d times in 60ms at a 5ms interval", ticks)
	}
}

func TestArmPollAndArmRetryAreMutuallyExclusive(t *testing.T) {
	d := concurrency.NewDispatcher(func() {}, func() {})
	d.Start()
	defer d.Stop()

	done := make(chan struct{})
	d.Submit(func() {
		d.ArmPoll(time.Hour)
		if !d.PollArmed() || d.RetryArmed() {
			t.Error("ArmPoll did not leave exactly poll armed")
		}
		d.ArmRetry(time.Hour)
		if d.PollArmed() || !d.RetryArmed() {
			t.Error("ArmRetry did not disarm poll")
		}
		close(done)
	})
	<-done
}

func TestDisarmStopsTicking(t *testing.T) {
	var ticks int32
	d := concurrency.NewDispatcher(func() {
		atomic.AddInt32(&ticks, 1)
	}, func() {})
	d.Start()
	defer d.Stop()

	d.Submit(func() { d.ArmPoll(3 * time.Millisecond) })
	time.Sleep(20 * time.Millisecond)
	d.Submit(func() { d.DisarmPoll() })
	time.Sleep(5 * time.Millisecond)
	after := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&ticks) != after {
		t.Fatalf("poll tick kept firing after DisarmPoll: %d -> %d", after, ticks)
	}
}
