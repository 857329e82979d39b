package actions

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/comalice/dfsm/internal/core"
)

// exitKeys end the key loop in judge_exit.
var exitKeys = map[string]bool{"q": true, "exit": true, "終了": true}

type lineResult struct {
	line string
	err  error
}

// nextLine returns the channel of the read in flight, starting one if none is.
// A read abandoned by a cancelled read_key is picked up by the next one, so at
// most one goroutine reads the input and no line is lost.
func (e *env) nextLine() <-chan lineResult {
	e.inMu.Lock()
	defer e.inMu.Unlock()
	if e.pending == nil {
		ch := make(chan lineResult, 1)
		e.pending = ch
		go func() {
			line, err := e.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}
	return e.pending
}

// readKey stores one line of input under KeyInputKey. At end of input the
// key becomes "exit" so that a judge_exit loop terminates.
func (e *env) readKey(ctx context.Context, inv *core.Invocation) error {
	if e.in == nil {
		if _, ok := inv.Context.GetString(KeyInputKey); !ok {
			inv.Context.Set(KeyInputKey, "")
		}
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-e.nextLine():
		e.inMu.Lock()
		e.pending = nil
		e.inMu.Unlock()
		line := strings.TrimRight(r.line, "\r\n")
		switch {
		case r.err == nil:
		case errors.Is(r.err, io.EOF):
			if line == "" {
				line = "exit"
			}
		default:
			return errors.Wrap(r.err, "read key")
		}
		inv.Context.Set(KeyInputKey, line)
		return nil
	}
}

func (e *env) printKey(_ context.Context, inv *core.Invocation) error {
	key, ok := stringParam(inv.Params, "key", "出力内容")
	if !ok {
		key = KeyInputKey
	}
	v, _ := inv.Context.Get(key)
	if v == nil {
		v = ""
	}
	_, err := fmt.Fprintln(e.out, fmt.Sprint(v))
	return err
}

func judgeExit(_ context.Context, inv *core.Invocation) error {
	key, _ := inv.Context.GetString(KeyInputKey)
	next := ContinueEvent
	if exitKeys[strings.ToLower(strings.TrimSpace(key))] {
		next = FinishEvent
	}
	inv.Context.Set(NextEventKey, next)
	return nil
}

func (e *env) cursorPosition(_ context.Context, inv *core.Invocation) error {
	x, y := e.cursor()
	inv.Context.Set(CursorKey, []any{x, y})
	return nil
}

func (e *env) printCursor(_ context.Context, inv *core.Invocation) error {
	x, y := any(0), any(0)
	if v, ok := inv.Context.Get(CursorKey); ok {
		if pos, ok := v.([]any); ok && len(pos) == 2 {
			x, y = pos[0], pos[1]
		}
	}
	_, err := fmt.Fprintf(e.out, "%s: %v, %v\n", CursorKey, x, y)
	return err
}
