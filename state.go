// Reader lifecycle.
//
// A Reader starts in "new", moves to "streaming" once the first header has
// been located, and to "finished" after the last record has been produced.
// Any parse or source failure moves it to "failed". Both finished and failed
// are terminal for forward reading; only Seek leaves them.
package fasta

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"
)

const (
	stateNew       = "new"
	stateStreaming = "streaming"
	stateFinished  = "finished"
	stateFailed    = "failed"
)

const (
	eventStart  = "start"
	eventFinish = "finish"
	eventFail   = "fail"
)

var transitions = fsm.Events{
	{Name: eventStart, Src: []string{stateNew}, Dst: stateStreaming},
	{Name: eventFinish, Src: []string{stateNew, stateStreaming}, Dst: stateFinished},
	{Name: eventFail, Src: []string{stateNew, stateStreaming}, Dst: stateFailed},
}

func newMachine(logger log.FieldLogger) *fsm.FSM {
	return fsm.NewFSM(stateNew, transitions, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			logger.WithFields(log.Fields{"from": e.Src, "to": e.Dst}).Trace("reader state")
		},
	})
}

// event fires a transition. Firing an event that does not apply to the
// current state is a no-op.
func (r *Reader) event(name string) {
	err := r.state.Event(context.Background(), name)
	if err == nil {
		return
	}
	var none fsm.NoTransitionError
	var invalid fsm.InvalidEventError
	if errors.As(err, &none) || errors.As(err, &invalid) {
		return
	}
	r.log.WithError(err).Warn("reader state transition")
}

// done reports whether forward reading has stopped.
func (r *Reader) done() bool {
	return r.state.Is(stateFinished) || r.state.Is(stateFailed)
}

func (r *Reader) finished() bool {
	return r.state.Is(stateFinished)
}

// fail records a terminal error and returns it.
func (r *Reader) fail(err error) error {
	r.event(eventFail)
	return err
}
