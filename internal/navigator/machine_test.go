package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		wantErr bool
	}{
		{"happy path", []State{FillingStep, Advancing, FillingStep, Advancing, Submitted}, false},
		{"abort while filling", []State{FillingStep, Aborted}, false},
		{"abort before entry", []State{Aborted}, false},
		{"skip filling", []State{Advancing}, true},
		{"submit from filling", []State{FillingStep, Submitted}, true},
		{"leave terminal state", []State{FillingStep, Advancing, Submitted, FillingStep}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(0, nil)
			var err error
			for _, s := range tt.path {
				if err = m.To(context.Background(), s); err != nil {
					break
				}
			}
			if tt.wantErr {
				var transitionErr *TransitionError
				assert.ErrorAs(t, err, &transitionErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, append([]State{AwaitingEntry}, tt.path...), m.History())
		})
	}
}

func TestMachine_GuardFailureKeepsState(t *testing.T) {
	redirected := errors.New("redirected")
	calls := 0
	m := NewMachine(0, func(context.Context) error {
		calls++
		if calls == 2 {
			return redirected
		}
		return nil
	})

	require.NoError(t, m.To(context.Background(), FillingStep))
	err := m.To(context.Background(), Advancing)
	assert.ErrorIs(t, err, redirected)
	assert.Equal(t, FillingStep, m.State())

	require.NoError(t, m.To(context.Background(), Aborted), "abort does not consult the guard")
	assert.Equal(t, 2, calls)
}

func TestMachine_StepLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(2, nil)

	require.NoError(t, m.To(ctx, FillingStep))
	require.NoError(t, m.To(ctx, Advancing))
	require.NoError(t, m.To(ctx, FillingStep))
	require.NoError(t, m.To(ctx, Advancing))
	assert.ErrorIs(t, m.To(ctx, FillingStep), ErrTooManySteps)
	assert.Equal(t, 2, m.Steps())
}

func TestMachine_ZeroLimitIsUnbounded(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(0, nil)

	for i := 0; i < 200; i++ {
		require.NoError(t, m.To(ctx, FillingStep))
		require.NoError(t, m.To(ctx, Advancing))
	}
	require.NoError(t, m.To(ctx, Submitted))
	assert.Equal(t, 200, m.Steps())
}

func TestMachine_Abort(t *testing.T) {
	m := NewMachine(0, nil)
	assert.True(t, m.Abort())
	assert.False(t, m.Abort())
	assert.Equal(t, Aborted, m.State())
	assert.True(t, m.State().Terminal())
}
