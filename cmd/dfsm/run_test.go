package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/dfsm/internal/actions"
	"github.com/comalice/dfsm/internal/config"
	"github.com/comalice/dfsm/internal/primitives"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func newTestRunner(t *testing.T, input string) (*runner, *bytes.Buffer, *logtest.Hook) {
	t.Helper()
	settings, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)
	logger, hook := logtest.NewNullLogger()
	out := &bytes.Buffer{}
	return &runner{
		settings: settings,
		logger:   logger,
		stdin:    strings.NewReader(input),
		stdout:   out,
		actionOpts: []actions.Option{
			actions.WithSleep(func(context.Context, time.Duration) error { return nil }),
		},
	}, out, hook
}

func TestRun_KeyLoop(t *testing.T) {
	r, out, hook := newTestRunner(t, "a\nq\n")
	r.settings.StdinKeys = true

	require.NoError(t, r.run(context.Background(), testdata("keyloop.json")))
	assert.Equal(t, "a\nq\n🔚\n", out.String())

	var finished bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Machine finished" {
			finished = true
			assert.Equal(t, "終了", e.Data["state"])
		}
	}
	assert.True(t, finished)
}

func TestRun_StdinEvents(t *testing.T) {
	r, out, _ := newTestRunner(t, "pay\ndone\n")

	require.NoError(t, r.run(context.Background(), testdata("order.yaml")))
	assert.Equal(t, "shipped\nclosed\n", out.String())
}

func TestRun_InputEndsEarly(t *testing.T) {
	r, _, _ := newTestRunner(t, "pay\n")

	err := r.run(context.Background(), testdata("order.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInputEnded))
	assert.Contains(t, err.Error(), "shipped")
}

func TestRun_Cancelled(t *testing.T) {
	r, _, _ := newTestRunner(t, "")
	r.settings.TickInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.run(ctx, testdata("order.yaml"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_InvalidConfig(t *testing.T) {
	r, _, _ := newTestRunner(t, "")

	err := r.run(context.Background(), testdata("broken.yaml"))
	require.Error(t, err)
	assert.True(t, primitives.IsUnknownStateError(err))

	err = r.run(context.Background(), testdata("missing.yaml"))
	assert.Error(t, err)
}

func TestRun_TraceRoundTrip(t *testing.T) {
	r, _, _ := newTestRunner(t, "pay\ndone\n")
	r.settings.TracePath = filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, r.run(context.Background(), testdata("order.yaml")))

	var out bytes.Buffer
	r.stdout = &out
	require.NoError(t, r.trace(r.settings.TracePath))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "(start)")
	assert.Contains(t, lines[0], "pending")
	assert.Contains(t, lines[3], "closed")
}

func TestRun_Render(t *testing.T) {
	r, out, _ := newTestRunner(t, "cancel\n")
	r.settings.Render = true

	require.NoError(t, r.run(context.Background(), testdata("order.yaml")))
	assert.Contains(t, out.String(), "FSM {")
	assert.Contains(t, out.String(), "Context {")
}

func TestDotValidateActions(t *testing.T) {
	r, out, _ := newTestRunner(t, "")

	require.NoError(t, r.dot(testdata("order.yaml")))
	assert.Contains(t, out.String(), "digraph FSM")

	out.Reset()
	require.NoError(t, r.validate(testdata("keyloop.json")))
	assert.Contains(t, out.String(), `"initial": "入力待ち"`)

	out.Reset()
	require.NoError(t, r.actions())
	assert.Contains(t, out.String(), "read_key\n")
	assert.Contains(t, out.String(), "キー入力\n")
}

func TestNewApp_FlagsOverrideSettings(t *testing.T) {
	settings, err := config.LoadFrom(map[string]string{"DFSM_TICK_EVENT": "beat", "DFSM_HISTORY_SIZE": "8"})
	require.NoError(t, err)

	app, paths := newApp(&settings)
	cmd, err := app.Parse([]string{"--log-level", "debug", "run", "--tick", "250ms", "--stdin-keys", testdata("keyloop.json")})
	require.NoError(t, err)

	assert.Equal(t, "run", cmd)
	assert.Equal(t, testdata("keyloop.json"), *paths["run"])
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, 250*time.Millisecond, settings.TickInterval)
	assert.Equal(t, "beat", settings.TickEvent)
	assert.Equal(t, 8, settings.HistorySize)
	assert.True(t, settings.StdinKeys)
}
