// Package task submits subtitle batches and follows the resulting server task
// to a terminal state.
package task

import (
	"time"

	"github.com/ppiankov/srtctl/internal/model"
)

// State is the orchestrator lifecycle.
//
//	Idle -> Submitting -> Polling -> Completed | Failed | TimedOut
//
// Cancellation from Submitting or Polling returns to Idle.
type State int

const (
	Idle State = iota
	Submitting
	Polling
	Completed
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Active reports whether a submission cycle is in flight.
func (s State) Active() bool { return s == Submitting || s == Polling }

// Terminal reports whether the cycle ended.
func (s State) Terminal() bool { return s == Completed || s == Failed || s == TimedOut }

// Update is delivered to the Observer on every state or progress change.
type Update struct {
	State     State
	Progress  int              // 0..100
	Synthetic bool             // estimate shown while the upload is outstanding
	Status    model.TaskStatus // last server status, empty before the first poll
	TaskID    string
	Poll      int // poll number that produced this update, 0 otherwise
	Err       error
}

// Observer receives updates. Calls never overlap. An observer must not call
// Run or Reset; Cancel and Snapshot are safe.
type Observer func(Update)

// Counter supplies the dictionary sizes reported in batch statistics.
type Counter interface {
	Counts() (correction, protection int)
}

// Options tunes an Orchestrator.
type Options struct {
	PollInterval      time.Duration
	MaxPolls          int
	TickInterval      time.Duration
	SyntheticCeiling  float64
	DecayInterval     time.Duration
	AllowedExtensions []string

	Observer Observer
	Counter  Counter
}

// DefaultOptions mirrors model.DefaultConfig().Task.
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig().Task)
}

// OptionsFromConfig builds Options from configuration, filling unset values
// with defaults.
func OptionsFromConfig(cfg model.TaskConfig) Options {
	return Options{
		PollInterval:      cfg.PollInterval,
		MaxPolls:          cfg.MaxPolls,
		TickInterval:      cfg.TickInterval,
		SyntheticCeiling:  cfg.SyntheticCeiling,
		DecayInterval:     cfg.DecayInterval,
		AllowedExtensions: cfg.AllowedExtensions,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = 1800
	}
	if o.TickInterval <= 0 {
		o.TickInterval = 200 * time.Millisecond
	}
	if o.SyntheticCeiling <= 0 || o.SyntheticCeiling > 100 {
		o.SyntheticCeiling = 85
	}
	if o.DecayInterval <= 0 {
		o.DecayInterval = 50 * time.Millisecond
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{".srt"}
	}
	return o
}

// Snapshot is a point-in-time view of an Orchestrator.
type Snapshot struct {
	State    State
	Progress int
	TaskID   string
	Err      error
}
