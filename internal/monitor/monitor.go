package monitor

import (
	"sync"
	"time"

	"github.com/graphtrust/graphtrust/internal/oracle"
)

// uptimeWindow is the number of recent health-probe outcomes tracked
// for the uptime percentage.
const uptimeWindow = 20

// Availability states reported for the oracle.
const (
	StateAvailable   = "available"
	StateDegraded    = "degraded"
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// Thresholds that map uptime and error rate to a state.
const (
	uptimeAvailablePct  = 90.0
	uptimeReachablePct  = 50.0
	errorRateHealthyPct = 5.0
)

// Report is the derived availability snapshot for one observation cycle.
type Report struct {
	Timestamp time.Time
	State     string

	// UptimePct is the percentage of recent health probes that succeeded.
	UptimePct float64

	// Query rates derived from counter deltas between cycles.
	QueriesPerMin float64
	ErrorsPerMin  float64
	ErrorRatePct  float64

	// Graph size gauges copied from the latest metrics scrape.
	GraphNodes float64
	GraphEdges float64
}

// Monitor maintains counter baselines across observation cycles and
// derives oracle availability from health-probe outcomes and metrics
// deltas.
//
// All exported methods are safe for concurrent use.
type Monitor struct {
	mu          sync.Mutex
	prev        *oracle.ServiceMetrics
	prevTime    time.Time
	hasBaseline bool
	history     []bool // probe outcomes, newest last
}

// New returns a ready-to-use Monitor.
func New() *Monitor {
	return &Monitor{}
}

// Process ingests one observation cycle: the health-probe outcome and,
// when the scrape succeeded, the oracle's service metrics (nil
// otherwise).
//
// now is passed explicitly so callers (and tests) control the clock
// without sleeping. Use time.Now() in production.
//
// The first cycle with metrics records the baseline counters and
// reports StateUnknown — rates cannot be computed without a delta.
func (m *Monitor) Process(metrics *oracle.ServiceMetrics, healthy bool, now time.Time) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordProbe(healthy)

	out := &Report{
		Timestamp: now,
		UptimePct: m.uptimePct(),
	}

	if metrics == nil {
		// No metrics this cycle — state rests on reachability alone.
		if out.UptimePct < uptimeReachablePct {
			out.State = StateUnavailable
		} else {
			out.State = StateUnknown
		}
		return out
	}

	out.GraphNodes = metrics.GraphNodes
	out.GraphEdges = metrics.GraphEdges

	if !m.hasBaseline {
		out.State = StateUnknown
		m.updateBaseline(metrics, now)
		return out
	}

	elapsed := now.Sub(m.prevTime).Minutes()
	if elapsed <= 0 {
		elapsed = 1 // guard against zero or negative clock drift
	}

	queriesDelta := deltaOf(metrics.QueriesTotal, m.prev.QueriesTotal)
	errorsDelta := deltaOf(metrics.QueryErrors, m.prev.QueryErrors)

	out.QueriesPerMin = queriesDelta / elapsed
	out.ErrorsPerMin = errorsDelta / elapsed
	if queriesDelta > 0 {
		out.ErrorRatePct = errorsDelta / queriesDelta * 100
	}
	out.State = stateFor(out.UptimePct, out.ErrorRatePct)

	m.updateBaseline(metrics, now)
	return out
}

// stateFor maps uptime and query error rate to an availability state.
func stateFor(uptimePct, errorRatePct float64) string {
	switch {
	case uptimePct < uptimeReachablePct:
		return StateUnavailable
	case uptimePct < uptimeAvailablePct || errorRatePct >= errorRateHealthyPct:
		return StateDegraded
	default:
		return StateAvailable
	}
}

func (m *Monitor) updateBaseline(metrics *oracle.ServiceMetrics, now time.Time) {
	m.prev = metrics
	m.prevTime = now
	m.hasBaseline = true
}

func (m *Monitor) recordProbe(success bool) {
	if len(m.history) >= uptimeWindow {
		m.history = m.history[1:]
	}
	m.history = append(m.history, success)
}

func (m *Monitor) uptimePct() float64 {
	if len(m.history) == 0 {
		return 100 // assume up before first observation
	}
	var ok int
	for _, s := range m.history {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(m.history)) * 100
}

// deltaOf returns the positive counter delta between current and
// previous. If current < previous (counter reset after an oracle
// restart), returns 0.
func deltaOf(current, previous float64) float64 {
	d := current - previous
	if d < 0 {
		return 0
	}
	return d
}
