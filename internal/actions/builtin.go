// Package actions contains the built-in action handlers. Every handler is
// registered under an English name and, where one exists, a Japanese name
// so that configs written with the Japanese key scheme resolve too.
package actions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/comalice/dfsm/internal/core"
)

// Context keys read and written by the built-ins.
const (
	KeyInputKey   = "入力キー"
	NextEventKey  = "次イベント"
	CursorKey     = "カーソル位置"
	OutputTextKey = "出力文字列"
)

const (
	// ContinueEvent is emitted by the wait actions when no event is configured.
	ContinueEvent = "継続"
	// FinishEvent is what judge_exit selects for an exit key.
	FinishEvent = "プログラム完了"

	DefaultWaitMS  = 1000
	FinishedMarker = "🔚"
)

// Option configures the environment the built-ins run in.
type Option func(*env)

// WithOutput directs print-style actions to w. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *env) { e.out = w }
}

// WithInput makes read_key read one line from r per call. Without it
// read_key only ensures the key slot holds a string.
func WithInput(r io.Reader) Option {
	return func(e *env) {
		if r != nil {
			e.in = bufio.NewReader(r)
		}
	}
}

// WithCursor sets the pointer position source for cursor_position.
func WithCursor(fn func() (x, y int)) Option {
	return func(e *env) { e.cursor = fn }
}

// WithSleep replaces the wait implementation, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *env) { e.sleep = fn }
}

// WithScriptDir resolves relative script file paths against dir.
func WithScriptDir(dir string) Option {
	return func(e *env) { e.scriptDir = dir }
}

type env struct {
	out       io.Writer
	in        *bufio.Reader
	inMu      sync.Mutex
	pending   chan lineResult
	cursor    func() (int, int)
	sleep     func(ctx context.Context, d time.Duration) error
	scriptDir string
	scripts   *scriptCache
}

// Builtins returns the built-in handlers keyed by every name they answer to.
func Builtins(opts ...Option) map[string]core.Handler {
	e := &env{
		out:     os.Stdout,
		cursor:  func() (int, int) { return 0, 0 },
		sleep:   sleep,
		scripts: newScriptCache(),
	}
	for _, opt := range opts {
		opt(e)
	}

	handlers := make(map[string]core.Handler)
	add := func(h core.Handler, names ...string) {
		for _, n := range names {
			handlers[n] = h
		}
	}
	add(logState, "log_state")
	add(logMessage, "log")
	add(set, "set")
	add(emitIf, "emit_if")
	add(emit, "emit", "イベント")
	add(e.print, "print", "文字出力")
	add(e.wait, "wait", "待機（ミリ秒）")
	add(e.waitSecond, "wait_second", "一秒待機")
	add(e.finish, "finish", "プログラム完了")
	add(judgeExit, "judge_exit", "プログラム完了判定")
	add(e.readKey, "read_key", "キー入力")
	add(e.printKey, "print_key", "キー出力")
	add(e.cursorPosition, "cursor_position", "カーソル位置取得")
	add(e.printCursor, "print_cursor", "カーソル位置出力")
	add(e.script, "script")
	return handlers
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func logState(_ context.Context, inv *core.Invocation) error {
	inv.Logger.WithFields(log.Fields{
		"state": inv.State,
		"event": inv.Event.Name,
	}).Info("State entered")
	return nil
}

func logMessage(_ context.Context, inv *core.Invocation) error {
	msg, _ := stringParam(inv.Params, "message", "msg", "内容")
	level := log.InfoLevel
	if s, ok := stringParam(inv.Params, "level"); ok {
		parsed, err := log.ParseLevel(s)
		if err != nil {
			return errors.Wrap(err, "log")
		}
		level = parsed
	}
	inv.Logger.WithField("state", inv.State).Log(level, msg)
	return nil
}

func set(_ context.Context, inv *core.Invocation) error {
	if values, ok := mapParam(inv.Params, "values"); ok {
		for k, v := range values {
			inv.Context.Set(k, v)
		}
		return nil
	}
	key, ok := stringParam(inv.Params, "key", "キー")
	if !ok {
		inv.Logger.Warn("set: key or values is required")
		return nil
	}
	v, _ := param(inv.Params, "value", "値")
	inv.Context.Set(key, v)
	return nil
}

func emit(_ context.Context, inv *core.Invocation) error {
	name, ok := stringParam(inv.Params, "event", "イベント名", "name")
	if !ok {
		inv.Logger.Warn("emit: event name is required")
		return nil
	}
	meta, _ := mapParam(inv.Params, "meta")
	inv.Emit(name, meta)
	return nil
}

func emitIf(ctx context.Context, inv *core.Invocation) error {
	cond, ok := stringParam(inv.Params, "when", "if", "条件")
	if !ok {
		inv.Logger.Warn("emit_if: condition is required")
		return nil
	}
	matched, err := Evaluate(ctx, inv.Context, cond)
	if err != nil {
		return err
	}
	key := "else"
	if matched {
		key = "event"
	}
	if name, ok := stringParam(inv.Params, key); ok {
		inv.Emit(name, nil)
	}
	return nil
}

func (e *env) print(_ context.Context, inv *core.Invocation) error {
	msg, ok := stringParam(inv.Params, "message", "内容")
	if !ok {
		msg, ok = inv.Context.GetString(OutputTextKey)
	}
	if !ok {
		inv.Logger.Warnf("print: message or context[%q] is required", OutputTextKey)
		return nil
	}
	_, err := fmt.Fprintln(e.out, msg)
	return err
}

func (e *env) wait(ctx context.Context, inv *core.Invocation) error {
	ms, ok := numberParam(inv.Params, "ms", "待機時間")
	if !ok {
		ms = DefaultWaitMS
	}
	name, ok := stringParam(inv.Params, "event", "出力イベント")
	if !ok {
		name = ContinueEvent
	}
	if err := e.sleep(ctx, time.Duration(ms*float64(time.Millisecond))); err != nil {
		return err
	}
	inv.Emit(name, nil)
	return nil
}

func (e *env) waitSecond(ctx context.Context, inv *core.Invocation) error {
	name, ok := inv.Context.GetString(NextEventKey)
	if !ok || name == "" {
		name = ContinueEvent
	}
	if err := e.sleep(ctx, time.Second); err != nil {
		return err
	}
	inv.Emit(name, nil)
	return nil
}

func (e *env) finish(context.Context, *core.Invocation) error {
	_, err := fmt.Fprintln(e.out, FinishedMarker)
	return err
}
