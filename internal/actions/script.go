package actions

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/pkg/errors"

	"github.com/comalice/dfsm/internal/core"
)

// Globals visible to script actions. ctx holds a copy of the machine
// context; keys the script adds or changes in it are written back.
const (
	scriptCtxVar   = "ctx"
	scriptStateVar = "state"
	scriptEventVar = "event"
	scriptEmitVar  = "emit"
)

type scriptCache struct {
	mu       sync.Mutex
	compiled map[string]*tengo.Compiled
}

func newScriptCache() *scriptCache {
	return &scriptCache{compiled: make(map[string]*tengo.Compiled)}
}

// get returns a private clone of the compiled program for key, compiling src on first use.
func (c *scriptCache) get(key string, src func() ([]byte, error)) (*tengo.Compiled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if compiled, ok := c.compiled[key]; ok {
		return compiled.Clone(), nil
	}
	code, err := src()
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript(code)
	_ = script.Add(scriptCtxVar, map[string]any{})
	_ = script.Add(scriptStateVar, "")
	_ = script.Add(scriptEventVar, "")
	_ = script.Add(scriptEmitVar, &tengo.UserFunction{Name: scriptEmitVar, Value: func(...tengo.Object) (tengo.Object, error) {
		return tengo.UndefinedValue, nil
	}})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, errors.Wrap(err, "compile script")
	}
	c.compiled[key] = compiled
	return compiled.Clone(), nil
}

func (e *env) script(ctx context.Context, inv *core.Invocation) error {
	var (
		key string
		src func() ([]byte, error)
	)
	if code, ok := stringParam(inv.Params, "source", "src", "code"); ok {
		key = "source:" + code
		src = func() ([]byte, error) { return []byte(code), nil }
	} else if path, ok := stringParam(inv.Params, "file", "path"); ok {
		if !filepath.IsAbs(path) && e.scriptDir != "" {
			path = filepath.Join(e.scriptDir, path)
		}
		key = "file:" + path
		src = func() ([]byte, error) {
			data, err := os.ReadFile(path)
			return data, errors.Wrapf(err, "read script %s", path)
		}
	} else {
		inv.Logger.Warn("script: source or file is required")
		return nil
	}

	compiled, err := e.scripts.get(key, src)
	if err != nil {
		return err
	}

	before := scriptValues(inv.Context.Snapshot())
	if err := compiled.Set(scriptCtxVar, before); err != nil {
		return errors.Wrap(err, "script context")
	}
	if err := compiled.Set(scriptStateVar, inv.State); err != nil {
		return err
	}
	if err := compiled.Set(scriptEventVar, inv.Event.Name); err != nil {
		return err
	}
	if err := compiled.Set(scriptEmitVar, &tengo.UserFunction{Name: scriptEmitVar, Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name, ok := tengo.ToString(args[0])
		if !ok || name == "" {
			return tengo.FalseValue, nil
		}
		var meta map[string]any
		if len(args) > 1 {
			meta, _ = tengo.ToInterface(args[1]).(map[string]any)
		}
		inv.Emit(name, meta)
		return tengo.TrueValue, nil
	}}); err != nil {
		return err
	}

	if err := compiled.RunContext(ctx); err != nil {
		return errors.Wrap(err, "run script")
	}

	after := compiled.Get(scriptCtxVar).Map()
	for k, v := range after {
		if old, ok := before[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		inv.Context.Set(k, v)
	}
	return nil
}

// scriptValues keeps the context entries tengo can represent, in the form
// tengo hands them back, so unchanged entries compare equal after a run.
func scriptValues(snapshot map[string]any) map[string]any {
	out := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		obj, err := tengo.FromInterface(v)
		if err != nil {
			continue
		}
		out[k] = tengo.ToInterface(obj)
	}
	return out
}
