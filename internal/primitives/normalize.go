package primitives

import (
	"fmt"
	"sort"
)

// Primary document keys. Canonical() writes only these.
const (
	InitialKey     = "initial"
	StatesKey      = "states"
	ContextKey     = "context"
	TerminalKey    = "terminal"
	EntryKey       = "entry"
	TickKey        = "tick"
	TransitionsKey = "transitions"
	OnDoneKey      = "onDone"
	EventKey       = "event"
	TargetKey      = "to"
	TypeKey        = "type"
)

// Each list starts with the primary key; the first key present wins.
var (
	initialKeys     = []string{InitialKey, "初期状態"}
	statesKeys      = []string{StatesKey, "状態群"}
	contextKeys     = []string{ContextKey, "文脈"}
	terminalKeys    = []string{TerminalKey, "終了状態"}
	entryKeys       = []string{EntryKey, "onEnter", "開始時", "Act"}
	tickKeys        = []string{TickKey, "onTick", "毎回"}
	transitionsKeys = []string{TransitionsKey, "遷移"}
	onDoneKeys      = []string{OnDoneKey, "完了時"}
	eventKeys       = []string{EventKey, "イベント"}
	targetKeys      = []string{TargetKey, "target", "遷移先"}
	typeKeys        = []string{TypeKey, "kind", "action", "種類"}
)

// Normalize turns a raw definition, written with either key scheme, into the canonical model.
// It fails with a ConfigError when the initial state or the states collection is
// missing, or when a state or transition entry is malformed, and with an
// UnknownStateError when the initial state or a transition target is undeclared.
func Normalize(raw map[string]any) (MachineConfig, error) {
	var cfg MachineConfig
	if raw == nil {
		return cfg, NewConfigError("", "definition is empty")
	}

	initial, key, ok := lookup(raw, initialKeys)
	if !ok {
		return cfg, NewConfigError(InitialKey, "no initial state key present")
	}
	name, isString := initial.(string)
	if !isString || name == "" {
		return cfg, NewConfigError(key, fmt.Sprintf("initial state must be a non-empty string, got %T", initial))
	}
	cfg.Initial = name

	if terminal, key, ok := lookup(raw, terminalKeys); ok {
		s, isString := terminal.(string)
		if !isString {
			return cfg, NewConfigError(key, fmt.Sprintf("terminal state must be a string, got %T", terminal))
		}
		cfg.Terminal = s
	}

	if rawCtx, key, ok := lookup(raw, contextKeys); ok && rawCtx != nil {
		ctx, isMap := toStringMap(rawCtx)
		if !isMap {
			return cfg, NewConfigError(key, fmt.Sprintf("context must be an object, got %T", rawCtx))
		}
		cfg.Context = ctx
	}

	rawStates, key, ok := lookup(raw, statesKeys)
	if !ok {
		return cfg, NewConfigError(StatesKey, "no states collection present")
	}
	states, isMap := toStringMap(rawStates)
	if !isMap {
		return cfg, NewConfigError(key, fmt.Sprintf("states must be an object, got %T", rawStates))
	}

	cfg.States = make(map[string]*StateConfig, len(states))
	for _, name := range sortedKeys(states) {
		state, err := normalizeState(name, states[name])
		if err != nil {
			return MachineConfig{}, err
		}
		cfg.States[name] = state
	}

	if err := cfg.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return cfg, nil
}

func normalizeState(name string, raw any) (*StateConfig, error) {
	path := StatesKey + "." + name
	fields, ok := toStringMap(raw)
	if !ok {
		return nil, NewConfigError(path, fmt.Sprintf("state entry must be an object, got %T", raw))
	}

	state := NewStateConfig(name)
	if v, _, ok := lookup(fields, entryKeys); ok {
		state.Entry = normalizeActions(v)
	}
	if v, _, ok := lookup(fields, tickKeys); ok {
		state.Tick = normalizeActions(v)
	}
	if v, key, ok := lookup(fields, transitionsKeys); ok && v != nil {
		list, isList := v.([]any)
		if !isList {
			return nil, NewConfigError(path+"."+key, fmt.Sprintf("transitions must be a list, got %T", v))
		}
		for i, item := range list {
			t, err := normalizeTransition(fmt.Sprintf("%s.%s[%d]", path, key, i), item)
			if err != nil {
				return nil, err
			}
			state.Transitions = append(state.Transitions, t)
		}
	}
	if v, key, ok := lookup(fields, onDoneKeys); ok {
		target, isString := v.(string)
		if !isString || target == "" {
			return nil, NewConfigError(path+"."+key, "completion target must be a non-empty string")
		}
		state.Transitions = append(state.Transitions, TransitionConfig{Event: DoneEvent, Target: target})
	}
	return state, nil
}

func normalizeTransition(path string, raw any) (TransitionConfig, error) {
	fields, ok := toStringMap(raw)
	if !ok {
		return TransitionConfig{}, NewConfigError(path, fmt.Sprintf("transition must be an object, got %T", raw))
	}
	event, _, _ := lookup(fields, eventKeys)
	target, _, _ := lookup(fields, targetKeys)
	t := TransitionConfig{}
	t.Event, _ = event.(string)
	t.Target, _ = target.(string)
	if err := t.Validate(); err != nil {
		return TransitionConfig{}, NewConfigError(path, err.Error())
	}
	return t, nil
}

// normalizeActions accepts a list, or a single name or descriptor standing for a one-element list.
// Empty lists normalize to nil.
func normalizeActions(raw any) []ActionRef {
	var items []any
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		items = v
	default:
		items = []any{v}
	}
	var out []ActionRef
	for _, item := range items {
		out = append(out, NormalizeAction(item))
	}
	return out
}

// NormalizeAction converts one raw entry into an ActionRef. Strings become named
// actions, objects with a string discriminant become descriptors, anything else is Invalid.
func NormalizeAction(raw any) ActionRef {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return Invalid(raw)
		}
		return Named(v)
	case ActionRef:
		return v
	}
	fields, ok := toStringMap(raw)
	if !ok {
		return Invalid(raw)
	}
	disc, key, ok := lookup(fields, typeKeys)
	typ, isString := disc.(string)
	if !ok || !isString || typ == "" {
		return Invalid(raw)
	}
	params := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != key {
			params[k] = v
		}
	}
	return Descriptor(typ, params)
}

func lookup(m map[string]any, keys []string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, k, true
		}
	}
	return nil, "", false
}

// toStringMap accepts the map shapes decoders produce.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
