// Package trust converts validated graph-distance facts into a bounded
// trust score.
//
// score.go provides the pure Score(hops, paths, Config) function
// (result always in [0,1]) and the fixed Level threshold ladder:
// Very High ≥0.9, High ≥0.5, Medium ≥0.25, Low ≥0.1, else Very Low;
// a nil score is Unknown.
//
// config.go holds the scoring parameters: per-hop distance weights, the
// path-redundancy bonus (scalar or per-hop table — see PathBonus), and
// the bonus cap. Every parameter resolves through one three-tier chain:
// caller value → built-in default → absolute fallback.
package trust
