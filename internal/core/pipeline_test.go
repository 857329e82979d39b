package core

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/dfsm/internal/primitives"
)

func TestPipelineRun(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name            string
		actions         []primitives.ActionRef
		continueOnError bool
		wantCalls       []string
		wantWarnings    int
		wantFailed      bool
	}{
		{
			name:      "named and descriptor in order",
			actions:   []primitives.ActionRef{primitives.Named("a"), primitives.Descriptor("b", map[string]any{"x": 1}), primitives.Named("a")},
			wantCalls: []string{"a", "b", "a"},
		},
		{
			name:         "unregistered skipped",
			actions:      []primitives.ActionRef{primitives.Named("nope"), primitives.Named("a")},
			wantCalls:    []string{"a"},
			wantWarnings: 1,
		},
		{
			name:         "invalid skipped",
			actions:      []primitives.ActionRef{primitives.Invalid(3.5), primitives.Named("a")},
			wantCalls:    []string{"a"},
			wantWarnings: 1,
		},
		{
			name:       "failure aborts",
			actions:    []primitives.ActionRef{primitives.Named("fail"), primitives.Named("a")},
			wantCalls:  []string{"fail"},
			wantFailed: true,
		},
		{
			name:            "failure continues",
			actions:         []primitives.ActionRef{primitives.Named("fail"), primitives.Named("a")},
			continueOnError: true,
			wantCalls:       []string{"fail", "a"},
			wantWarnings:    1,
		},
		{
			name:       "panic recovered as failure",
			actions:    []primitives.ActionRef{primitives.Named("panic"), primitives.Named("a")},
			wantCalls:  []string{"panic"},
			wantFailed: true,
		},
		{
			name: "empty list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			reg := mapRegistry{
				"a": func(_ context.Context, inv *Invocation) error {
					calls = append(calls, "a")
					return nil
				},
				"b": func(_ context.Context, inv *Invocation) error {
					calls = append(calls, "b")
					assert.Equal(t, 1, inv.Params["x"])
					assert.Equal(t, "b", inv.Action.Type)
					return nil
				},
				"fail": func(context.Context, *Invocation) error {
					calls = append(calls, "fail")
					return boom
				},
				"panic": func(context.Context, *Invocation) error {
					calls = append(calls, "panic")
					panic("kaboom")
				},
			}
			logger, hook := logtest.NewNullLogger()
			p := NewPipeline(reg, logger, NewMetrics(nil), tt.continueOnError)

			err := p.Run(context.Background(), "s", primitives.Event{}, tt.actions, primitives.NewContext(nil), nil)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Len(t, warnings(hook), tt.wantWarnings)
			if tt.wantFailed {
				require.Error(t, err)
				assert.True(t, primitives.IsActionFailedError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipelineNilRegistry(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	p := NewPipeline(nil, logger, NewMetrics(nil), false)
	err := p.Run(context.Background(), "s", primitives.Event{}, []primitives.ActionRef{primitives.Named("a")}, primitives.NewContext(nil), nil)
	require.NoError(t, err)
	assert.Len(t, warnings(hook), 1)
}

func TestInvocationEmit(t *testing.T) {
	var got []primitives.Event
	inv := NewInvocation(primitives.NewContext(nil), "s", primitives.Named("x"), func(e primitives.Event) {
		got = append(got, e)
	})
	inv.Emit("go", map[string]any{"k": "v"})
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].Name)
	assert.Equal(t, "v", got[0].Meta["k"])

	// Without an emitter Emit is a no-op.
	NewInvocation(primitives.NewContext(nil), "s", primitives.Named("x"), nil).Emit("go", nil)
}
