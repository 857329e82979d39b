package metrics

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReporterAccumulates(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	r := NewLogReporter(logger)

	r.ReportCounter("transitions", nil, 2)
	r.ReportCounter("transitions", nil, 3)
	r.ReportCounter("errors", map[string]string{"b": "2", "a": "1"}, 1)
	r.ReportGauge("queue_depth", nil, 4)
	r.ReportGauge("queue_depth", nil, 1)
	r.ReportTimer("latency", nil, time.Second)

	assert.Equal(t, int64(5), r.Counter("transitions"))
	assert.Equal(t, int64(1), r.Counter("errors{a=1,b=2}"))

	r.Flush()
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, float64(1), hook.LastEntry().Data["queue_depth"])
	assert.Equal(t, time.Second, hook.LastEntry().Data["latency"])

	require.NoError(t, r.Close())
	assert.Equal(t, "Metrics summary", hook.LastEntry().Message)
	assert.True(t, r.Capabilities().Reporting())
	assert.True(t, r.Capabilities().Tagging())
}

func TestRootScopeReportsOnClose(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := NewLogReporter(logger)
	scope, closer := NewRootScope("dfsm", r, 0)

	scope.Counter("transitions").Inc(3)
	scope.SubScope("action").Counter("run").Inc(1)
	require.NoError(t, closer.Close())

	assert.Equal(t, int64(3), r.Counter("dfsm.transitions"))
	assert.Equal(t, int64(1), r.Counter("dfsm.action.run"))
	assert.Equal(t, "Metrics summary", hook.LastEntry().Message)
	assert.Equal(t, int64(3), hook.LastEntry().Data["dfsm.transitions"])
}
