// Package concurrency provides the single-goroutine cooperative scheduler
// that the client state machine runs on: one queue of command tasks plus
// two mutually-exclusive interval timers (poll and retry), all served by a
// single owning goroutine so that no two handlers ever run concurrently.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package concurrency
