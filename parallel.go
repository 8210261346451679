// Batch pipeline over RecordSets.
//
// Parallel splits parsing from processing. The calling goroutine owns the
// Reader and fills RecordSets; workers receive them, run fn, and hand them
// back for refilling. A fixed number of sets circulates (two per worker),
// so the pipeline reaches a steady state with no per-batch allocation and
// the parser never runs more than one batch ahead of each worker.
//
// The first error from fn or from the Reader cancels the pipeline. Every
// error that occurred before the workers stopped is returned, combined.
package fasta

import (
	"context"
	"io"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Parallel reads every remaining record set from r and calls fn on each
// from one of workers goroutines. workers <= 0 means GOMAXPROCS. fn owns
// the set only for the duration of the call.
func Parallel(ctx context.Context, r *Reader, workers int, fn func(*RecordSet) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	free := make(chan *RecordSet, workers*2)
	for range cap(free) {
		free <- new(RecordSet)
	}
	full := make(chan *RecordSet)

	var (
		mu   sync.Mutex
		errs error
	)
	record := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
		cancel()
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for set := range full {
				if ctx.Err() == nil {
					if err := fn(set); err != nil {
						record(err)
					}
				}
				free <- set
			}
		}()
	}

	r.log.WithField("workers", workers).Debug("pipeline started")
	batches := 0

produce:
	for {
		var set *RecordSet
		select {
		case <-ctx.Done():
			break produce
		case set = <-free:
		}

		err := r.ReadRecordSet(set)
		if err == io.EOF {
			break
		}
		if err != nil {
			record(err)
			break
		}

		select {
		case full <- set:
			batches++
		case <-ctx.Done():
			break produce
		}
	}
	close(full)
	wg.Wait()

	r.log.WithFields(log.Fields{"workers": workers, "batches": batches}).Debug("pipeline stopped")

	if errs == nil {
		return parent.Err()
	}
	return errs
}
