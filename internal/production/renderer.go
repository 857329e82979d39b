package production

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/comalice/dfsm/internal/core"
	"github.com/comalice/dfsm/internal/primitives"
)

const clearScreen = "\x1b[H\x1b[2J"

// TextRenderer prints the machine definition and the context after every
// state entry, and after every processed event when ticks are enabled.
type TextRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	table *core.Table
	clear bool
	ticks bool
	// limits tick frames only; state entries always render
	limiter *rate.Limiter
}

// RendererOption configures a TextRenderer.
type RendererOption func(*TextRenderer)

// WithClearScreen clears the terminal before each frame.
func WithClearScreen() RendererOption {
	return func(r *TextRenderer) { r.clear = true }
}

// WithTicks also renders once per processed event.
func WithTicks() RendererOption {
	return func(r *TextRenderer) { r.ticks = true }
}

// WithMaxFPS drops tick frames beyond fps per second. Zero or less means unlimited.
func WithMaxFPS(fps float64) RendererOption {
	return func(r *TextRenderer) {
		if fps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		}
	}
}

// NewTextRenderer creates a renderer for table writing to w.
func NewTextRenderer(w io.Writer, table *core.Table, opts ...RendererOption) *TextRenderer {
	r := &TextRenderer{w: w, table: table}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TextRenderer) OnStateEnter(s core.Snapshot) error {
	return r.render(s)
}

func (r *TextRenderer) OnTick(s core.Snapshot) error {
	if !r.ticks {
		return nil
	}
	if r.limiter != nil && !r.limiter.Allow() {
		return nil
	}
	return r.render(s)
}

func (r *TextRenderer) render(s core.Snapshot) error {
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}
	writeMachine(&b, r.table, s.State)
	writeContext(&b, s.Context)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.w, b.String())
	return err
}

func writeMachine(b *strings.Builder, table *core.Table, current string) {
	b.WriteString("FSM {\n")
	for _, name := range table.States() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(b, " %s%s:\n", marker, name)
		state, _ := table.State(name)
		if len(state.Entry) > 0 {
			fmt.Fprintf(b, "    entry = %s\n", joinActions(state.Entry))
		}
		for _, tr := range state.Transitions {
			fmt.Fprintf(b, "    %s → %s\n", tr.Event, tr.Target)
		}
	}
	b.WriteString("}\n")
}

func joinActions(actions []primitives.ActionRef) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}
	return strings.Join(names, ", ")
}

func writeContext(b *strings.Builder, ctx map[string]any) {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("Context {\n")
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %v\n", k, ctx[k])
	}
	b.WriteString("}\n")
}
