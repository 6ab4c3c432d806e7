// Package stream reassembles incremental model output into ordered partial
// results with a well-defined terminal state.
package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// State is the lifecycle position of one stream.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name. Unknown names are rejected.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateStreaming, StateComplete, StateFailed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stream state %q", b)
}

// Terminal reports whether no further updates follow.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Source yields text chunks in arrival order, bufio.Scanner style.
type Source interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// Update is one emitted partial result.
type Update struct {
	Delta string `json:"delta"`
	Text  string `json:"text"`
	State State  `json:"state"`
}

// Result is the settled outcome of a stream.
type Result struct {
	Text   string
	State  State
	Chunks int
	Err    error
}

// Messages are the fixed texts emitted on failure and on an empty stream.
type Messages struct {
	Failure string
	Empty   string
}

// Aggregator drives a single stream from Idle to Complete or Failed.
// It is not reusable.
type Aggregator struct {
	msgs    Messages
	updates chan Update
	done    chan struct{}

	mu     sync.Mutex
	state  State
	result Result
}

// New creates an idle Aggregator.
func New(msgs Messages) *Aggregator {
	return &Aggregator{
		msgs:    msgs,
		updates: make(chan Update, 16),
		done:    make(chan struct{}),
	}
}

// Fixed returns an already settled Aggregator that emits exactly one update.
func Fixed(text string, state State, err error) *Aggregator {
	a := New(Messages{})
	a.updates <- Update{Delta: text, Text: text, State: state}
	a.settle(Result{Text: text, State: state, Err: err})
	return a
}

// Updates delivers partial results in order. The channel closes once the
// stream settles.
func (a *Aggregator) Updates() <-chan Update { return a.updates }

// State returns the current lifecycle state.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Wait blocks until the stream settles and returns its outcome.
func (a *Aggregator) Wait() Result {
	<-a.done
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Start consumes src in a new goroutine. Cancelling ctx stops consumption,
// closes src and settles the stream as failed without a terminal message.
func (a *Aggregator) Start(ctx context.Context, src Source) {
	a.mu.Lock()
	a.state = StateStreaming
	a.mu.Unlock()
	go a.run(ctx, src)
}

func (a *Aggregator) run(ctx context.Context, src Source) {
	var b strings.Builder
	chunks := 0
	for {
		if ctx.Err() != nil {
			a.finish(src, Result{Text: b.String(), State: StateFailed, Chunks: chunks, Err: ctx.Err()})
			return
		}
		if !src.Next() {
			break
		}
		delta := src.Text()
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		chunks++
		if !a.emit(ctx, Update{Delta: delta, Text: b.String(), State: StateStreaming}) {
			a.finish(src, Result{Text: b.String(), State: StateFailed, Chunks: chunks, Err: ctx.Err()})
			return
		}
	}

	if err := src.Err(); err != nil {
		if ctx.Err() != nil {
			a.finish(src, Result{Text: b.String(), State: StateFailed, Chunks: chunks, Err: ctx.Err()})
			return
		}
		text := b.String() + a.msgs.Failure
		a.emit(ctx, Update{Delta: a.msgs.Failure, Text: text, State: StateFailed})
		a.finish(src, Result{Text: text, State: StateFailed, Chunks: chunks, Err: err})
		return
	}

	if chunks == 0 {
		a.emit(ctx, Update{Delta: a.msgs.Empty, Text: a.msgs.Empty, State: StateComplete})
		a.finish(src, Result{Text: a.msgs.Empty, State: StateComplete})
		return
	}
	a.finish(src, Result{Text: b.String(), State: StateComplete, Chunks: chunks})
}

func (a *Aggregator) emit(ctx context.Context, u Update) bool {
	select {
	case a.updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Aggregator) finish(src Source, r Result) {
	_ = src.Close()
	a.settle(r)
}

func (a *Aggregator) settle(r Result) {
	a.mu.Lock()
	a.state = r.State
	a.result = r
	a.mu.Unlock()
	close(a.updates)
	close(a.done)
}
