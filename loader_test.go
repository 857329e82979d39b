package dfsm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/dfsm/internal/primitives"
	"github.com/comalice/dfsm/internal/production"
)

func TestFormatOf(t *testing.T) {
	assert.Equal(t, JSONDocument, FormatOf("machine.json"))
	assert.Equal(t, JSONDocument, FormatOf("MACHINE.JSON"))
	assert.Equal(t, YAMLDocument, FormatOf("machine.yaml"))
	assert.Equal(t, YAMLDocument, FormatOf("machine"))
}

func TestLoadFile_JapaneseKeys(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "keyloop.json"))
	require.NoError(t, err)

	assert.Equal(t, "入力待ち", cfg.Initial)
	assert.Equal(t, "終了", cfg.TerminalState())
	assert.Equal(t, "", cfg.Context["入力キー"])
	require.Contains(t, cfg.States, "入力待ち")

	loop := cfg.States["入力待ち"]
	require.Len(t, loop.Entry, 4)
	assert.Equal(t, "キー入力", loop.Entry[0].Name)
	assert.Equal(t, []primitives.TransitionConfig{
		{Event: "継続", Target: "入力待ち"},
		{Event: "プログラム完了", Target: "終了"},
	}, loop.Transitions)
}

func TestLoadFile_YAML(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "order.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pending", cfg.Initial)
	assert.Equal(t, "closed", cfg.TerminalState())

	paid := cfg.States["paid"]
	require.Len(t, paid.Entry, 2)
	assert.Equal(t, primitives.DescriptorAction, paid.Entry[1].Kind)
	assert.Equal(t, "emit", paid.Entry[1].Type)
	assert.Equal(t, "ship", paid.Entry[1].Params["event"])

	shipped := cfg.States["shipped"]
	assert.Equal(t, primitives.TransitionConfig{Event: primitives.DoneEvent, Target: "closed"},
		shipped.Transitions[len(shipped.Transitions)-1])
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFile(filepath.Join("testdata", "broken.yaml"))
	require.Error(t, err)
	assert.True(t, IsUnknownStateError(err))
}

func TestDecode(t *testing.T) {
	for name, tc := range map[string]struct {
		data   string
		format DocumentFormat
		check  func(error) bool
	}{
		"bad json":       {`{"initial": `, JSONDocument, IsConfigError},
		"bad yaml":       {"initial: [", YAMLDocument, IsConfigError},
		"empty":          {"", YAMLDocument, IsConfigError},
		"no states":      {`{"initial": "a"}`, JSONDocument, IsConfigError},
		"unknown format": {"{}", DocumentFormat("toml"), func(err error) bool { return !IsConfigError(err) }},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.True(t, tc.check(err), err.Error())
		})
	}
}

func TestDecode_CanonicalRoundTrip(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "keyloop.json"))
	require.NoError(t, err)

	data, err := production.ExportJSON(cfg)
	require.NoError(t, err)
	again, err := Decode(data, JSONDocument)
	require.NoError(t, err)

	want, err := primitives.Fingerprint(&cfg)
	require.NoError(t, err)
	got, err := primitives.Fingerprint(&again)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
