package conversion

import (
	"sync"

	"github.com/RevoLabs-IO/video2gif/internal/model"
	"github.com/RevoLabs-IO/video2gif/internal/progress"
)

// emitter delivers progress to the caller's callback from a dedicated
// goroutine, so a slow or blocking callback can never stall the pipeline.
// Every sample passes through a Sequencer, which keeps stages ordered and
// percent values non-decreasing regardless of delivery timing.
type emitter struct {
	seq  *progress.Sequencer
	ch   chan model.Progress
	done chan struct{}
	once sync.Once
}

func newEmitter(cb func(model.Progress)) *emitter {
	e := &emitter{
		seq:  progress.NewSequencer(),
		done: make(chan struct{}),
	}
	if cb == nil {
		close(e.done)
		return e
	}
	e.ch = make(chan model.Progress, 256)
	go func() {
		defer close(e.done)
		for p := range e.ch {
			cb(p)
		}
	}()
	return e
}

// emit normalizes and queues one sample. When the queue is full the sample
// is dropped; the sequencer has already recorded it, so later samples still
// honor monotonicity.
func (e *emitter) emit(p model.Progress) {
	p.Stage, p.Percent = e.seq.Next(p.Stage, p.Percent)
	if e.ch == nil {
		return
	}
	select {
	case e.ch <- p:
	default:
	}
}

// freeze pins the percent value; emitted samples stop advancing but are
// still delivered. Used when cancellation lands mid-stream.
func (e *emitter) freeze() {
	e.seq.Freeze()
}

// close stops the delivery goroutine after draining queued samples.
func (e *emitter) close() {
	e.once.Do(func() {
		if e.ch != nil {
			close(e.ch)
		}
	})
	<-e.done
}
