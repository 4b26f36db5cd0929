package trust

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Built-in default scoring tables. Missing keys in a caller-supplied
// Config fall back to these, then to the absolute fallback constants.
var (
	defaultDistanceWeights = map[int]float64{1: 1.0, 2: 0.5, 3: 0.25, 4: 0.1}
	defaultPathBonus       = map[int]float64{2: 0.15, 3: 0.10, 4: 0.05}
)

// Absolute fallbacks used when a hop key is absent from both the
// caller-supplied table and the built-in default table.
const (
	fallbackWeight      = 0.1
	fallbackPerHopBonus = 0.05
	fallbackScalarBonus = 0.1

	// DefaultMaxPathBonus caps the path-redundancy bonus so extra paths
	// can never fully offset hop distance.
	DefaultMaxPathBonus = 0.5
)

// maxModeledHops collapses all hop distances beyond 4 onto the hop-4
// weight; decay is not modeled past that point.
const maxModeledHops = 4

// Config holds the scoring parameters. The zero value scores with the
// built-in defaults; any populated field overrides per key.
type Config struct {
	// DistanceWeights maps hop distance (1..4) to a base weight in [0,1].
	DistanceWeights map[int]float64 `yaml:"distance_weights"`

	// PathBonus is the bonus per extra shortest path, either as a single
	// scalar or as a per-hop table. See the PathBonus type.
	PathBonus PathBonus `yaml:"path_bonus"`

	// MaxPathBonus caps the total path bonus. Nil means DefaultMaxPathBonus.
	MaxPathBonus *float64 `yaml:"max_path_bonus"`
}

// PathBonus is the bonus-per-extra-path parameter in one of two forms:
// a per-hop table keyed by hop distance (2..4), or the legacy single
// scalar applied at every distance. The two forms are kept as a tagged
// variant so every consumer handles both explicitly.
type PathBonus struct {
	scalar *float64
	perHop map[int]float64
}

// ScalarBonus returns the legacy single-scalar form.
func ScalarBonus(v float64) PathBonus {
	return PathBonus{scalar: &v}
}

// PerHopBonus returns the per-hop table form.
func PerHopBonus(m map[int]float64) PathBonus {
	return PathBonus{perHop: m}
}

// valueFor resolves the bonus-per-extra-path for hopKey.
// Scalar form: the scalar, or fallbackScalarBonus when unset.
// Per-hop form (and the zero value): three-tier lookup through the
// caller table, the built-in default table, then fallbackPerHopBonus.
func (b PathBonus) valueFor(hopKey int) float64 {
	if b.scalar != nil {
		return *b.scalar
	}
	return resolve(b.perHop, defaultPathBonus, hopKey, fallbackPerHopBonus)
}

// UnmarshalYAML accepts both configuration shapes:
//
//	path_bonus: 0.1              # scalar
//	path_bonus: {2: 0.15, 3: 0.1} # per-hop
func (b *PathBonus) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("path_bonus: %w", err)
		}
		*b = ScalarBonus(v)
		return nil
	case yaml.MappingNode:
		var m map[int]float64
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("path_bonus: %w", err)
		}
		*b = PerHopBonus(m)
		return nil
	default:
		return fmt.Errorf("path_bonus: must be a number or a hop→bonus mapping")
	}
}

// maxBonus returns the configured bonus cap, defaulting when unset.
func (c Config) maxBonus() float64 {
	if c.MaxPathBonus != nil {
		return *c.MaxPathBonus
	}
	return DefaultMaxPathBonus
}

// resolve is the single default-filling chain for per-hop tables:
// caller-supplied table, then the built-in default table, then the
// absolute fallback. Keeping it in one place stops call sites from
// growing divergent defaulting logic.
func resolve(table, defaults map[int]float64, key int, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	if v, ok := defaults[key]; ok {
		return v
	}
	return fallback
}
