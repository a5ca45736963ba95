package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_Rounds(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		ok        bool
		err       error
		wantState State
		wantTake  error
	}{
		{name: "ready", ok: true, wantState: StateReady},
		{name: "exhausted", wantState: StateExhausted, wantTake: ErrExhausted},
		{name: "failed", err: boom, wantState: StateFailed, wantTake: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l lifecycle
			p := NewPromise[bool]()
			l.promise, l.state = p, StateChecking

			require.True(t, l.resolveRound(p, tt.ok, tt.err))
			assert.Equal(t, tt.wantState, l.state)

			err := l.take()
			if tt.wantTake == nil {
				require.NoError(t, err)
				assert.Equal(t, StateFresh, l.state)
				assert.False(t, l.readyHeld)
				return
			}
			assert.ErrorIs(t, err, tt.wantTake)
		})
	}
}

func TestLifecycle_TakeWithoutCheck(t *testing.T) {
	var l lifecycle
	assert.ErrorIs(t, l.take(), ErrIllegalSequencing)

	l.state = StateChecking
	assert.ErrorIs(t, l.take(), ErrIllegalSequencing)
}

func TestLifecycle_CancelDuringCheck(t *testing.T) {
	var l lifecycle
	p := NewPromise[bool]()
	l.promise, l.state = p, StateChecking

	pending, changed := l.markCancelled()
	require.True(t, changed)
	assert.Same(t, p, pending)
	assert.False(t, l.resolveRound(p, true, nil), "a cancelled round stays resolved")
	assert.ErrorIs(t, l.take(), ErrExhausted)

	pending, changed = l.markCancelled()
	assert.False(t, changed)
	assert.Nil(t, pending)
}

func TestLifecycle_CancelKeepsReadyElement(t *testing.T) {
	var l lifecycle
	p := NewPromise[bool]()
	l.promise, l.state = p, StateChecking
	require.True(t, l.resolveRound(p, true, nil))

	pending, changed := l.markCancelled()
	require.True(t, changed)
	assert.Nil(t, pending)

	require.NoError(t, l.take())
	assert.Equal(t, StateCancelled, l.state)
	assert.ErrorIs(t, l.take(), ErrExhausted)
}
