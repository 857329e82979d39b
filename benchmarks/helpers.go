// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/comalice/dfsm"
)

// GenFlatConfig creates a flat machine with n states cycling via "tick" events.
func GenFlatConfig(n int) dfsm.Config {
	if n < 1 {
		n = 1
	}
	b := dfsm.NewBuilder("s0")
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i)).Transition("tick", fmt.Sprintf("s%d", (i+1)%n))
	}
	return b.MustBuild()
}

// GenWideTransitions creates one main state with numTransitions outgoing
// events. Only the last declared event, "hit", leads anywhere new, so every
// lookup walks the whole list.
func GenWideTransitions(numTransitions int) dfsm.Config {
	if numTransitions < 1 {
		numTransitions = 1
	}
	b := dfsm.NewBuilder("main")
	main := b.State("main")
	for i := 0; i < numTransitions-1; i++ {
		main.Transition(fmt.Sprintf("miss%d", i), "main")
	}
	main.Transition("hit", "other")
	b.State("other").Transition("hit", "main")
	return b.MustBuild()
}

// GenEntryConfig creates a two-state machine whose states each run n entry actions named action.
func GenEntryConfig(n int, action string) dfsm.Config {
	b := dfsm.NewBuilder("a")
	for _, name := range []string{"a", "b"} {
		sb := b.State(name)
		for i := 0; i < n; i++ {
			sb.Entry(action)
		}
	}
	b.State("a").Transition("tick", "b")
	b.State("b").Transition("tick", "a")
	return b.MustBuild()
}

// GenDocument renders config as a YAML document.
func GenDocument(config dfsm.Config) []byte {
	data, err := yaml.Marshal(config.Canonical())
	if err != nil {
		panic(err)
	}
	return data
}

// StartMachine creates and starts a quiet machine for config.
func StartMachine(config dfsm.Config, opts ...dfsm.Option) (*dfsm.Machine, error) {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	opts = append([]dfsm.Option{dfsm.WithLogger(logger), dfsm.WithHistorySize(1)}, opts...)
	m, err := dfsm.New(config, opts...)
	if err != nil {
		return nil, err
	}
	return m, m.Start(context.Background())
}
