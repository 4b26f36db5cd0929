// Package monitor tracks oracle availability across watch-mode cycles.
//
// Monitor.Process accepts each cycle's health-probe outcome and metrics
// scrape, maintains a sliding window of probe outcomes (uptime %) and
// counter baselines, and derives per-minute query/error rates from the
// deltas. States: available (uptime ≥90%, error rate <5%), degraded,
// unavailable (uptime <50%), unknown (no baseline or no metrics).
// The clock is injected through Process so tests run without sleeping.
package monitor
