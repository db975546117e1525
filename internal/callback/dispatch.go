package callback

import (
	"github.com/CosmWasm/goffi/types"
)

type job struct {
	args  []any
	reply chan any
}

// dispatcher runs every invocation of one threadsafe registration on a single
// goroutine, in the order the native threads submitted them. A callback that
// synchronously re-enters itself from inside the dispatcher deadlocks, as it
// would on any single owning thread.
type dispatcher struct {
	jobs chan job
	done chan struct{}
	run  types.NativeCallback
	// zero answers submissions the dispatcher stopped before running.
	zero any
}

func newDispatcher(size int, run types.NativeCallback, zero any) *dispatcher {
	d := &dispatcher{
		jobs: make(chan job, size),
		done: make(chan struct{}),
		run:  run,
		zero: zero,
	}
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	for {
		select {
		case j := <-d.jobs:
			j.reply <- d.run(j.args)
		case <-d.done:
			return
		}
	}
}

// submit is called on the native thread. It blocks until the invocation has
// run, or returns the zero value if the dispatcher stops first.
func (d *dispatcher) submit(args []any) any {
	reply := make(chan any, 1)
	select {
	case d.jobs <- job{args: args, reply: reply}:
	case <-d.done:
		return d.zero
	}
	select {
	case v := <-reply:
		return v
	case <-d.done:
		return d.zero
	}
}

func (d *dispatcher) stop() {
	close(d.done)
}
