package task

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/result"
)

// API is the subset of the service the Orchestrator uses.
type API interface {
	Process(ctx context.Context, files []string) (string, error)
	Task(ctx context.Context, id string) (*model.Task, error)
}

// Orchestrator runs one submission cycle at a time.
type Orchestrator struct {
	api  API
	opts Options

	// emitMu orders observer calls; it is taken before mu.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     State
	progress  float64
	taskID    string
	status    model.TaskStatus
	lastErr   error
	cancel    context.CancelFunc
	stopDecay chan struct{}
}

// New creates an Orchestrator in the Idle state.
func New(api API, opts Options) *Orchestrator {
	return &Orchestrator{api: api, opts: opts.withDefaults()}
}

// Run uploads files, polls the task until it reaches a terminal status and
// returns the normalized result. It fails with errs.ErrBusy while another Run
// is in flight and with a ValidationError before any request if the batch is
// rejected. Canceling ctx (or calling Cancel) stops local observation, returns
// the orchestrator to Idle and leaves the server-side task running.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*model.BatchResult, error) {
	runCtx, err := o.begin(ctx, files)
	if err != nil {
		return nil, err
	}

	stopSynthetic := o.startSynthetic()
	id, err := o.api.Process(runCtx, files)
	stopSynthetic()
	if err != nil {
		if runCtx.Err() != nil {
			return nil, o.abandon(runCtx.Err())
		}
		return nil, o.fail(Failed, fmt.Errorf("submit: %w", err))
	}

	log.Info().Str("task_id", id).Int("files", len(files)).Msg("task submitted")
	o.transition(func() {
		o.state = Polling
		o.taskID = id
	}, 0)

	return o.poll(runCtx, id)
}

func (o *Orchestrator) begin(ctx context.Context, files []string) (context.Context, error) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	if o.state.Active() {
		o.mu.Unlock()
		return nil, errs.ErrBusy
	}
	if err := ValidateFiles(files, o.opts.AllowedExtensions); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.haltDecayLocked()

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.state = Submitting
	o.progress = 0
	o.taskID = ""
	o.status = ""
	o.lastErr = nil
	u := o.updateLocked(0, false)
	o.mu.Unlock()

	o.notify(u)
	return runCtx, nil
}

// poll is the bounded status loop. Responses are applied strictly in order.
func (o *Orchestrator) poll(ctx context.Context, id string) (*model.BatchResult, error) {
	timer := time.NewTimer(o.opts.PollInterval)
	defer timer.Stop()

	for n := 1; n <= o.opts.MaxPolls; n++ {
		if err := ctx.Err(); err != nil {
			return nil, o.abandon(err)
		}
		select {
		case <-ctx.Done():
			return nil, o.abandon(ctx.Err())
		case <-timer.C:
		}

		t, err := o.api.Task(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, o.abandon(ctx.Err())
			}
			return nil, o.fail(Failed, fmt.Errorf("poll task %s: %w", id, err))
		}

		log.Debug().Str("task_id", id).Int("poll", n).Str("status", string(t.Status)).Float64("progress", t.Progress).Msg("task status")

		o.transition(func() {
			o.progress = clampProgress(t.Progress)
			o.status = t.Status
		}, n)

		switch t.Status {
		case model.TaskCompleted:
			return o.complete(id, t), nil
		case model.TaskError:
			msg := t.Error
			if msg == "" {
				msg = "Unknown error"
			}
			return nil, o.fail(Failed, &errs.TaskFailure{TaskID: id, Message: msg})
		}

		timer.Reset(o.opts.PollInterval)
	}

	return nil, o.fail(TimedOut, &errs.TaskTimeout{TaskID: id, Polls: o.opts.MaxPolls, Interval: o.opts.PollInterval})
}

func (o *Orchestrator) complete(id string, t *model.Task) *model.BatchResult {
	res := result.Aggregate(t)
	res.TaskID = id
	if o.opts.Counter != nil {
		res.Statistics.CorrectionTermsCount, res.Statistics.ProtectedTermsCount = o.opts.Counter.Counts()
	}

	o.transition(func() {
		o.state = Completed
		o.progress = 100
		o.cancelLocked()
	}, 0)

	log.Info().Str("task_id", id).Int("files", len(res.Files)).Int("corrections", res.Statistics.TotalCorrections).Msg("task completed")
	return &res
}

// fail moves to a failure state, starts the progress decay and returns err.
func (o *Orchestrator) fail(state State, err error) error {
	o.transition(func() {
		o.state = state
		o.lastErr = err
		o.cancelLocked()
	}, 0)

	log.Warn().Err(err).Str("state", state.String()).Msg("task did not complete")
	o.startDecay(state)
	return err
}

// abandon returns to Idle after cancellation.
func (o *Orchestrator) abandon(err error) error {
	o.transition(func() {
		o.state = Idle
		o.progress = 0
		o.lastErr = nil
		o.cancelLocked()
	}, 0)

	log.Debug().Err(err).Msg("task observation canceled")
	return err
}

// Cancel stops the running cycle, if any. The server keeps processing.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Reset returns a finished orchestrator to Idle. It fails with errs.ErrBusy
// while a cycle is running.
func (o *Orchestrator) Reset() error {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	if o.state.Active() {
		o.mu.Unlock()
		return errs.ErrBusy
	}
	o.haltDecayLocked()
	o.state = Idle
	o.progress = 0
	o.taskID = ""
	o.status = ""
	o.lastErr = nil
	u := o.updateLocked(0, false)
	o.mu.Unlock()

	o.notify(u)
	return nil
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:    o.state,
		Progress: roundProgress(o.progress),
		TaskID:   o.taskID,
		Err:      o.lastErr,
	}
}

// transition applies fn under the lock and notifies the observer.
func (o *Orchestrator) transition(fn func(), poll int) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	fn()
	u := o.updateLocked(poll, false)
	o.mu.Unlock()

	o.notify(u)
}

func (o *Orchestrator) updateLocked(poll int, synthetic bool) Update {
	return Update{
		State:     o.state,
		Progress:  roundProgress(o.progress),
		Synthetic: synthetic,
		Status:    o.status,
		TaskID:    o.taskID,
		Poll:      poll,
		Err:       o.lastErr,
	}
}

func (o *Orchestrator) notify(u Update) {
	if o.opts.Observer != nil {
		o.opts.Observer(u)
	}
}

func (o *Orchestrator) cancelLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func clampProgress(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

func roundProgress(p float64) int {
	return int(math.Round(clampProgress(p)))
}

// IsCanceled reports whether err came from a canceled Run.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
