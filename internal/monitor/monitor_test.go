package monitor

import (
	"testing"
	"time"

	"github.com/graphtrust/graphtrust/internal/oracle"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func metrics(queries, errors float64) *oracle.ServiceMetrics {
	return &oracle.ServiceMetrics{
		GraphNodes:   1000,
		GraphEdges:   50000,
		QueriesTotal: queries,
		QueryErrors:  errors,
	}
}

func TestProcess_FirstCycleIsUnknown(t *testing.T) {
	m := New()
	rep := m.Process(metrics(100, 0), true, t0)

	if rep.State != StateUnknown {
		t.Errorf("State = %q, want unknown on first cycle", rep.State)
	}
	if rep.QueriesPerMin != 0 {
		t.Errorf("QueriesPerMin = %v before a baseline exists", rep.QueriesPerMin)
	}
	if rep.GraphNodes != 1000 {
		t.Errorf("GraphNodes = %v, gauges should copy through", rep.GraphNodes)
	}
}

func TestProcess_DerivesRates(t *testing.T) {
	m := New()
	m.Process(metrics(100, 2), true, t0)

	// Two minutes later: +240 queries, +6 errors.
	rep := m.Process(metrics(340, 8), true, t0.Add(2*time.Minute))

	if rep.QueriesPerMin != 120 {
		t.Errorf("QueriesPerMin = %v, want 120", rep.QueriesPerMin)
	}
	if rep.ErrorsPerMin != 3 {
		t.Errorf("ErrorsPerMin = %v, want 3", rep.ErrorsPerMin)
	}
	if rep.ErrorRatePct != 2.5 {
		t.Errorf("ErrorRatePct = %v, want 2.5", rep.ErrorRatePct)
	}
	if rep.State != StateAvailable {
		t.Errorf("State = %q, want available", rep.State)
	}
}

func TestProcess_HighErrorRateDegrades(t *testing.T) {
	m := New()
	m.Process(metrics(100, 0), true, t0)

	// 10% of new queries errored.
	rep := m.Process(metrics(200, 10), true, t0.Add(time.Minute))
	if rep.State != StateDegraded {
		t.Errorf("State = %q, want degraded at 10%% error rate", rep.State)
	}
}

func TestProcess_CounterResetGuard(t *testing.T) {
	m := New()
	m.Process(metrics(5000, 40), true, t0)

	// Oracle restarted: counters dropped below the baseline.
	rep := m.Process(metrics(30, 1), true, t0.Add(time.Minute))
	if rep.QueriesPerMin != 0 || rep.ErrorsPerMin != 0 {
		t.Errorf("rates after reset = %v/%v, want 0/0", rep.QueriesPerMin, rep.ErrorsPerMin)
	}
}

func TestProcess_UptimeWindow(t *testing.T) {
	m := New()
	now := t0
	m.Process(metrics(0, 0), true, now)

	// Half the probes fail.
	for i := 0; i < 9; i++ {
		now = now.Add(time.Minute)
		healthy := i%2 == 0
		var met *oracle.ServiceMetrics
		if healthy {
			met = metrics(float64(100*i), 0)
		}
		m.Process(met, healthy, now)
	}

	rep := m.Process(metrics(10000, 0), true, now.Add(time.Minute))
	// 11 probes, 4 failures → ~63.6% uptime → degraded.
	if rep.UptimePct >= uptimeAvailablePct || rep.UptimePct < uptimeReachablePct {
		t.Fatalf("UptimePct = %v, expected between %v and %v", rep.UptimePct, uptimeReachablePct, uptimeAvailablePct)
	}
	if rep.State != StateDegraded {
		t.Errorf("State = %q, want degraded", rep.State)
	}
}

func TestProcess_UnreachableOracle(t *testing.T) {
	m := New()
	now := t0
	for i := 0; i < uptimeWindow; i++ {
		now = now.Add(time.Minute)
		m.Process(nil, false, now)
	}

	rep := m.Process(nil, false, now.Add(time.Minute))
	if rep.UptimePct != 0 {
		t.Errorf("UptimePct = %v, want 0", rep.UptimePct)
	}
	if rep.State != StateUnavailable {
		t.Errorf("State = %q, want unavailable", rep.State)
	}
}

func TestProcess_NoMetricsButReachable(t *testing.T) {
	m := New()
	rep := m.Process(nil, true, t0)
	if rep.State != StateUnknown {
		t.Errorf("State = %q, want unknown when metrics are missing", rep.State)
	}
}

func TestProcess_ZeroElapsedGuard(t *testing.T) {
	m := New()
	m.Process(metrics(100, 0), true, t0)

	// Same timestamp twice must not divide by zero.
	rep := m.Process(metrics(160, 0), true, t0)
	if rep.QueriesPerMin != 60 {
		t.Errorf("QueriesPerMin with zero elapsed = %v, want 60 (1-minute floor)", rep.QueriesPerMin)
	}
}
