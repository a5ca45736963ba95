package async

// State is the lifecycle state of an iterator instance.
type State int

const (
	// StateFresh means a readiness check is required before the next
	// consume, either because none ran yet or because the last ready
	// element was consumed.
	StateFresh State = iota
	// StateChecking means a readiness check is outstanding.
	StateChecking
	// StateReady means the last check resolved true and its element has
	// not been consumed.
	StateReady
	// StateExhausted means the last check resolved false. Terminal.
	StateExhausted
	// StateCancelled means Cancel was called. Terminal.
	StateCancelled
	// StateFailed means the last check failed with an error from the
	// underlying source. Terminal.
	StateFailed
)

var stateNames = [...]string{
	StateFresh:     "fresh",
	StateChecking:  "checking",
	StateReady:     "ready",
	StateExhausted: "exhausted",
	StateCancelled: "cancelled",
	StateFailed:    "failed",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further element can become available.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateCancelled || s == StateFailed
}

// lifecycle holds the round bookkeeping shared by the producers that track
// their own state. Callers hold their mutex around every method.
type lifecycle struct {
	state     State
	promise   *Promise[bool]
	readyHeld bool
	err       error
}

// resolveRound records the outcome of round p. It reports false when p is
// no longer the live round because Cancel already resolved it.
func (l *lifecycle) resolveRound(p *Promise[bool], ok bool, err error) bool {
	if l.promise != p || l.state != StateChecking {
		return false
	}
	switch {
	case err != nil:
		l.state = StateFailed
		l.err = err
	case ok:
		l.state = StateReady
		l.readyHeld = true
	default:
		l.state = StateExhausted
	}
	return true
}

// take claims the element reported ready for a Next call. A nil error means
// the caller hands the element out.
func (l *lifecycle) take() error {
	switch state := l.state; {
	case state == StateReady || (state == StateCancelled && l.readyHeld):
		l.readyHeld = false
		if state == StateReady {
			l.state = StateFresh
		}
		return nil
	case state == StateExhausted || state == StateCancelled:
		return ErrExhausted
	case state == StateFailed:
		return l.err
	default:
		return illegalSequencing(state)
	}
}

// markCancelled moves to StateCancelled and returns the round that was
// outstanding, if any. It reports false when already cancelled.
func (l *lifecycle) markCancelled() (pending *Promise[bool], changed bool) {
	if l.state == StateCancelled {
		return nil, false
	}
	if l.state == StateChecking {
		pending = l.promise
	}
	l.state = StateCancelled
	return pending, true
}
