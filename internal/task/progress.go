package task

import (
	"math/rand"
	"sync"
	"time"
)

const (
	syntheticStep = 3.0 // max synthetic increment per tick
	decayFactor   = 0.8
	decaySteps    = 10
)

// startSynthetic grows progress by a random step every tick while the upload
// is outstanding, never past the ceiling. The returned func stops it and
// waits for the goroutine to exit.
func (o *Orchestrator) startSynthetic() func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(o.opts.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.syntheticTick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
		})
	}
}

func (o *Orchestrator) syntheticTick() {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	if o.state != Submitting || o.progress >= o.opts.SyntheticCeiling {
		o.mu.Unlock()
		return
	}
	o.progress = min(o.opts.SyntheticCeiling, o.progress+rand.Float64()*syntheticStep)
	u := o.updateLocked(0, true)
	o.mu.Unlock()

	o.notify(u)
}

// startDecay animates progress back to zero after a failure. It stops early
// if the orchestrator leaves state.
func (o *Orchestrator) startDecay(state State) {
	o.mu.Lock()
	o.haltDecayLocked()
	stop := make(chan struct{})
	o.stopDecay = stop
	o.mu.Unlock()

	go func() {
		ticker := time.NewTicker(o.opts.DecayInterval)
		defer ticker.Stop()

		for i := 1; i <= decaySteps; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			if !o.decayStep(state, i == decaySteps) {
				return
			}
		}
	}()
}

// decayStep shrinks progress once; last forces zero. It returns false when
// decay is over.
func (o *Orchestrator) decayStep(state State, last bool) bool {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	if o.state != state || o.progress == 0 {
		o.mu.Unlock()
		return false
	}
	o.progress *= decayFactor
	if o.progress < 1 || last {
		o.progress = 0
	}
	u := o.updateLocked(0, false)
	more := o.progress > 0
	o.mu.Unlock()

	o.notify(u)
	return more
}

func (o *Orchestrator) haltDecayLocked() {
	if o.stopDecay != nil {
		close(o.stopDecay)
		o.stopDecay = nil
	}
}
