package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, Linear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
	assert.NoError(t, p.Validate())
}

func TestNewPolicyClampsInitial(t *testing.T) {
	p := NewPolicy(Fixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, Policy{Mode: Fixed, Initial: 2 * time.Second, Max: 2 * time.Second, MaxRetries: 5}, p)
	assert.Equal(t, Linear, NewPolicy("bogus", 0, 0, -1).Mode)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(Fixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(Linear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(Exponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.policy.Delay(i+1), "retry %d", i+1)
			}
			assert.Zero(t, tt.policy.Delay(0))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDoRetriesOnlyRetryableErrors(t *testing.T) {
	p := NewPolicy(Fixed, time.Millisecond, time.Millisecond, 2)

	calls := 0
	err := p.Do(t.Context(), func(context.Context) error {
		calls++
		if calls < 3 {
			return derrors.NetworkError("flaky").Build()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(t.Context(), func(context.Context) error {
		calls++
		return derrors.NetworkError("down").Build()
	})
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNetwork))
	assert.Equal(t, 3, calls)

	calls = 0
	plain := errors.New("permanent")
	err = p.Do(t.Context(), func(context.Context) error {
		calls++
		return plain
	})
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	p := NewPolicy(Fixed, time.Hour, time.Hour, 5)
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return derrors.NetworkError("down").Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
