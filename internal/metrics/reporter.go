// Package metrics provides a tally reporter that writes metric values to a
// logrus logger, so the CLI can surface engine counters without a metrics backend.
package metrics

import (
	"io"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// LogReporter accumulates reported values and logs them on every flush at
// debug level, and once more at info level on Close.
type LogReporter struct {
	logger log.FieldLogger

	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timers   map[string]time.Duration
}

var _ tally.StatsReporter = (*LogReporter)(nil)

// NewLogReporter creates a LogReporter writing to logger.
func NewLogReporter(logger log.FieldLogger) *LogReporter {
	return &LogReporter{
		logger:   logger,
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timers:   make(map[string]time.Duration),
	}
}

// NewRootScope creates a tally root scope prefixed with prefix that reports to
// r every interval. A zero interval reports only when the returned closer is closed.
func NewRootScope(prefix string, r *LogReporter, interval time.Duration) (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   prefix,
		Reporter: r,
	}, interval)
}

func (r *LogReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key(name, tags)] += value
}

func (r *LogReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[key(name, tags)] = value
}

func (r *LogReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers[key(name, tags)] += interval
}

func (r *LogReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound, bucketUpperBound float64,
	samples int64,
) {
	r.ReportCounter(name+".samples", tags, samples)
}

func (r *LogReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound, bucketUpperBound time.Duration,
	samples int64,
) {
	r.ReportCounter(name+".samples", tags, samples)
}

func (r *LogReporter) Capabilities() tally.Capabilities {
	return r
}

func (r *LogReporter) Reporting() bool { return true }

func (r *LogReporter) Tagging() bool { return true }

func (r *LogReporter) Flush() {
	r.logger.WithFields(r.Fields()).Debug("Metrics")
}

// Close logs the accumulated totals. tally calls it when the root scope closes.
func (r *LogReporter) Close() error {
	r.logger.WithFields(r.Fields()).Info("Metrics summary")
	return nil
}

// Counter returns the accumulated value of the counter reported under name.
func (r *LogReporter) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Fields returns every non-zero counter and every gauge and timer as log fields.
func (r *LogReporter) Fields() log.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make(log.Fields, len(r.counters)+len(r.gauges)+len(r.timers))
	for k, v := range r.counters {
		if v != 0 {
			fields[k] = v
		}
	}
	for k, v := range r.gauges {
		fields[k] = v
	}
	for k, v := range r.timers {
		fields[k] = v
	}
	return fields
}

// key renders name with its tags in sorted order, e.g. "latency{action=print}".
func key(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)
	out := name + "{"
	for i, k := range names {
		if i > 0 {
			out += ","
		}
		out += k + "=" + tags[k]
	}
	return out + "}"
}
