// File: internal/concurrency/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher is the in-process stand-in for the host runtime's cooperative
// task scheduler: a FIFO command queue plus two interval timers, all
// drained by exactly one goroutine. It guarantees the property the client
// state machine depends on: a command handler, a poll tick and a retry
// tick never execute concurrently with one another.

package concurrency

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Task is one unit of work submitted to a Dispatcher.
type Task func()

// Dispatcher serializes Task execution and two named interval timers (poll
// and retry) onto a single goroutine started by Run.
type Dispatcher struct {
	onPollTick  func()
	onRetryTick func()

	mu   sync.Mutex
	q    *queue.Queue
	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	// The fields below are only ever touched from inside Run's goroutine
	// (directly, or via Arm/Disarm called from a Task running on it), so
	// they need no synchronization of their own.
	pollTimer *time.Timer
	pollCh    <-chan time.Time
	pollEvery time.Duration

	retryTimer *time.Timer
	retryCh    <-chan time.Time
	retryEvery time.Duration
}

// NewDispatcher builds a Dispatcher. onPollTick and onRetryTick are invoked
// on the Run goroutine whenever the corresponding timer is armed and fires.
func NewDispatcher(onPollTick, onRetryTick func()) *Dispatcher {
	return &Dispatcher{
		onPollTick:  onPollTick,
		onRetryTick: onRetryTick,
		q:           queue.New(),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Submit enqueues task for serialized execution on the Run goroutine. Safe
// to call from any goroutine, including the Run goroutine itself.
func (d *Dispatcher) Submit(task Task) {
	d.mu.Lock()
	d.q.Add(task)
	d.mu.Unlock()
	d.signal()
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) pop() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.q.Length() == 0 {
		return nil, false
	}
	return d.q.Remove().(Task), true
}

func (d *Dispatcher) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.q.Length() > 0
}

// ArmPoll schedules onPollTick to run every `every`, disarming the retry
// timer first: the two are mutually exclusive. Must be called from a Task
// running on the Run goroutine.
func (d *Dispatcher) ArmPoll(every time.Duration) {
	d.DisarmRetry()
	d.pollEvery = every
	if d.pollTimer == nil {
		d.pollTimer = time.NewTimer(every)
	} else {
		stopTimer(d.pollTimer)
		d.pollTimer.Reset(every)
	}
	d.pollCh = d.pollTimer.C
}

// DisarmPoll stops the poll timer, if armed.
func (d *Dispatcher) DisarmPoll() {
	if d.pollTimer != nil {
		stopTimer(d.pollTimer)
	}
	d.pollCh = nil
}

// ArmRetry schedules onRetryTick to run every `every`, disarming the poll
// timer first.
func (d *Dispatcher) ArmRetry(every time.Duration) {
	d.DisarmPoll()
	d.retryEvery = every
	if d.retryTimer == nil {
		d.retryTimer = time.NewTimer(every)
	} else {
		stopTimer(d.retryTimer)
		d.retryTimer.Reset(every)
	}
	d.retryCh = d.retryTimer.C
}

// DisarmRetry stops the retry timer, if armed.
func (d *Dispatcher) DisarmRetry() {
	if d.retryTimer != nil {
		stopTimer(d.retryTimer)
	}
	d.retryCh = nil
}

// PollArmed reports whether the poll timer is currently active.
func (d *Dispatcher) PollArmed() bool { return d.pollCh != nil }

// RetryArmed reports whether the retry timer is currently active.
func (d *Dispatcher) RetryArmed() bool { return d.retryCh != nil }

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// Run drains commands and serves the two timers until Stop is called. It
// must run on its own goroutine; callers typically do `go d.Run()`.
func (d *Dispatcher) Run() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
			if t, ok := d.pop(); ok {
				t()
			}
			if d.pending() {
				d.signal()
			}
		case <-d.pollCh:
			d.onPollTick()
			if d.pollCh != nil {
				d.pollTimer.Reset(d.pollEvery)
			}
		case <-d.retryCh:
			d.onRetryTick()
			if d.retryCh != nil {
				d.retryTimer.Reset(d.retryEvery)
			}
		}
	}
}

// Start launches Run on a new goroutine.
func (d *Dispatcher) Start() {
	go d.Run()
}

// Stop signals Run to exit and blocks until it has.
func (d *Dispatcher) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	<-d.done
}
