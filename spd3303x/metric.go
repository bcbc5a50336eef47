package spd3303x

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// SessionMetrics contains atomic metrics for a session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type SessionMetrics struct {
	// RequestCount indicates the number of requests written.
	RequestCount atomic.Uint64
	// ReplyCount indicates the number of reply lines read.
	ReplyCount atomic.Uint64
	// DecodeErrCount indicates the number of reply lines that failed to decode.
	DecodeErrCount atomic.Uint64
	// TransportErrCount indicates the number of stream failures.
	TransportErrCount atomic.Uint64

	// ConnectFallbackCount indicates the number of candidate addresses that failed
	// before the session was established.
	ConnectFallbackCount atomic.Uint32

	commands *xsync.MapOf[string, *xsync.Counter]
}

func newSessionMetrics() *SessionMetrics {
	return &SessionMetrics{commands: xsync.NewMapOf[string, *xsync.Counter]()}
}

func (m *SessionMetrics) incRequestCount(header string) {
	m.RequestCount.Add(1)
	counter, _ := m.commands.LoadOrCompute(header, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Inc()
}

func (m *SessionMetrics) incReplyCount() {
	m.ReplyCount.Add(1)
}

func (m *SessionMetrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

func (m *SessionMetrics) incTransportErrCount() {
	m.TransportErrCount.Add(1)
}

// CommandCount returns the number of requests written with the given command header,
// e.g. "MEASure:VOLTage?" or "OUTPut".
func (m *SessionMetrics) CommandCount(header string) int64 {
	counter, ok := m.commands.Load(header)
	if !ok {
		return 0
	}

	return counter.Value()
}

// RangeCommands calls fn for each command header seen so far, until fn returns false.
func (m *SessionMetrics) RangeCommands(fn func(header string, count int64) bool) {
	m.commands.Range(func(header string, counter *xsync.Counter) bool {
		return fn(header, counter.Value())
	})
}
