package primitives

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

const idleRunning = `{
	"initial": "idle",
	"states": {
		"idle": {"transitions": [{"event": "go", "to": "running"}]},
		"running": {"transitions": []}
	}
}`

func TestNormalizeMinimal(t *testing.T) {
	cfg, err := Normalize(decode(t, idleRunning))
	require.NoError(t, err)

	assert.Equal(t, "idle", cfg.Initial)
	require.Contains(t, cfg.States, "idle")
	require.Contains(t, cfg.States, "running")
	assert.Equal(t, []TransitionConfig{{Event: "go", Target: "running"}}, cfg.States["idle"].Transitions)
	assert.Nil(t, cfg.States["running"].Transitions)
	assert.Equal(t, "running", cfg.States["running"].Name)
}

func TestNormalizeAliasSchemes(t *testing.T) {
	primary := decode(t, `{
		"initial": "待機",
		"context": {"出力文字列": "hello"},
		"states": {
			"待機": {
				"entry": ["log_state", {"type": "wait", "ms": 10}],
				"tick": ["log_state"],
				"transitions": [{"event": "継続", "to": "終了"}]
			},
			"終了": {}
		}
	}`)
	localized := decode(t, `{
		"初期状態": "待機",
		"文脈": {"出力文字列": "hello"},
		"状態群": {
			"待機": {
				"開始時": ["log_state", {"種類": "wait", "ms": 10}],
				"毎回": "log_state",
				"遷移": [{"イベント": "継続", "遷移先": "終了"}]
			},
			"終了": {}
		}
	}`)

	a, err := Normalize(primary)
	require.NoError(t, err)
	b, err := Normalize(localized)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	fa, err := Fingerprint(&a)
	require.NoError(t, err)
	fb, err := Fingerprint(&b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestNormalizeInitialAliasesProduceSameMachine(t *testing.T) {
	a, err := Normalize(decode(t, `{"initial": "idle", "states": {"idle": {}}}`))
	require.NoError(t, err)
	b, err := Normalize(decode(t, `{"初期状態": "idle", "states": {"idle": {}}}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizePrimaryKeyWins(t *testing.T) {
	cfg, err := Normalize(decode(t, `{
		"initial": "a",
		"初期状態": "b",
		"states": {
			"a": {"transitions": [{"event": "x", "イベント": "y", "to": "b", "遷移先": "a"}]},
			"b": {}
		},
		"状態群": {"ignored": 1}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Initial)
	assert.Len(t, cfg.States, 2)
	assert.Equal(t, TransitionConfig{Event: "x", Target: "b"}, cfg.States["a"].Transitions[0])
}

func TestNormalizeConfigErrors(t *testing.T) {
	tests := map[string]string{
		"no initial":               `{"states": {"a": {}}}`,
		"initial not a string":     `{"initial": 3, "states": {"a": {}}}`,
		"no states":                `{"initial": "a"}`,
		"states not an object":     `{"initial": "a", "states": ["a"]}`,
		"state entry not object":   `{"initial": "a", "states": {"a": "oops"}}`,
		"state entry null":         `{"initial": "a", "states": {"a": null}}`,
		"transitions not a list":   `{"initial": "a", "states": {"a": {"transitions": {"go": "a"}}}}`,
		"transition not an object": `{"initial": "a", "states": {"a": {"transitions": ["go"]}}}`,
		"transition without to":    `{"initial": "a", "states": {"a": {"transitions": [{"event": "go"}]}}}`,
		"context not an object":    `{"initial": "a", "context": 1, "states": {"a": {}}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(decode(t, doc))
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "want ConfigError, got %v", err)
		})
	}
}

func TestNormalizeUnknownStates(t *testing.T) {
	_, err := Normalize(decode(t, `{"initial": "missing", "states": {"a": {}}}`))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.True(t, IsUnknownStateError(err))
	assert.Contains(t, err.Error(), "missing")

	_, err = Normalize(decode(t, `{"初期状態": "無い", "状態群": {"a": {}}}`))
	assert.True(t, IsConfigError(err))

	_, err = Normalize(decode(t, `{"initial": "a", "states": {"a": {"transitions": [{"event": "go", "to": "b"}]}}}`))
	assert.True(t, IsUnknownStateError(err))
	assert.False(t, IsConfigError(err))
}

func TestNormalizeActions(t *testing.T) {
	cfg, err := Normalize(decode(t, `{
		"initial": "a",
		"states": {
			"a": {"entry": [
				"log_state",
				{"type": "log", "message": "hi"},
				{"kind": "emit", "event": "go"},
				{"action": "wait", "ms": 5},
				{"message": "no discriminant"},
				42,
				""
			]}
		}
	}`))
	require.NoError(t, err)

	entry := cfg.States["a"].Entry
	require.Len(t, entry, 7)
	assert.Equal(t, Named("log_state"), entry[0])
	assert.Equal(t, Descriptor("log", map[string]any{"message": "hi"}), entry[1])
	assert.Equal(t, Descriptor("emit", map[string]any{"event": "go"}), entry[2])
	assert.Equal(t, Descriptor("wait", map[string]any{"ms": float64(5)}), entry[3])
	assert.Equal(t, InvalidAction, entry[4].Kind)
	assert.Equal(t, InvalidAction, entry[5].Kind)
	assert.Equal(t, InvalidAction, entry[6].Kind)
}

func TestNormalizeSingleActionAndAct(t *testing.T) {
	cfg, err := Normalize(decode(t, `{
		"initial": "a",
		"states": {
			"a": {"Act": "カーソル位置取得"},
			"b": {"entry": {"type": "log", "message": "x"}}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []ActionRef{Named("カーソル位置取得")}, cfg.States["a"].Entry)
	assert.Equal(t, []ActionRef{Descriptor("log", map[string]any{"message": "x"})}, cfg.States["b"].Entry)
}

func TestNormalizeOnDone(t *testing.T) {
	cfg, err := Normalize(decode(t, `{
		"initial": "a",
		"states": {
			"a": {"transitions": [{"event": "skip", "to": "b"}], "完了時": "b"},
			"b": {}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []TransitionConfig{
		{Event: "skip", Target: "b"},
		{Event: DoneEvent, Target: "b"},
	}, cfg.States["a"].Transitions)
}

func TestNormalizeIdempotent(t *testing.T) {
	docs := []string{
		idleRunning,
		`{
			"初期状態": "a",
			"終了状態": "z",
			"文脈": {"n": 1, "list": [1, 2]},
			"状態群": {
				"a": {"Act": ["x", {"kind": "emit", "event": "go", "type2": 1}, 7], "完了時": "z", "毎回": "tick_me"},
				"z": {}
			}
		}`,
	}
	for _, doc := range docs {
		first, err := Normalize(decode(t, doc))
		require.NoError(t, err)

		// Round-trip through JSON to make sure the canonical document is a plain document.
		data, err := json.Marshal(first.Canonical())
		require.NoError(t, err)
		second, err := Normalize(decode(t, string(data)))
		require.NoError(t, err)
		assert.Equal(t, first, second)

		third, err := Normalize(second.Canonical())
		require.NoError(t, err)
		assert.Equal(t, second, third)

		f1, _ := Fingerprint(&first)
		f3, _ := Fingerprint(&third)
		assert.Equal(t, f1, f3)
	}
}

func TestNormalizeDuplicateTransitionsKept(t *testing.T) {
	cfg, err := Normalize(decode(t, `{
		"initial": "a",
		"states": {
			"a": {"transitions": [{"event": "go", "to": "b"}, {"event": "go", "to": "c"}]},
			"b": {}, "c": {}
		}
	}`))
	require.NoError(t, err)
	assert.Len(t, cfg.States["a"].Transitions, 2)
}

func TestNormalizeYAMLMapShape(t *testing.T) {
	raw := map[string]any{
		"initial": "a",
		"states": map[any]any{
			"a": map[any]any{"transitions": []any{map[any]any{"event": "go", "to": "a"}}},
		},
	}
	cfg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.States["a"].Transitions[0].Target)
}

func TestActionRefCanonical(t *testing.T) {
	d := Descriptor("log", map[string]any{"message": "hi"})
	assert.Equal(t, map[string]any{"type": "log", "message": "hi"}, d.Canonical())
	assert.Equal(t, "log", d.Key())

	data, err := json.Marshal([]ActionRef{Named("a"), d})
	require.NoError(t, err)
	assert.JSONEq(t, `["a", {"type": "log", "message": "hi"}]`, string(data))

	assert.Equal(t, "", Invalid(3).Key())
	assert.Equal(t, "invalid", InvalidAction.String())
}
