package trust

// Trust level labels returned by Level.
const (
	LevelUnknown  = "Unknown"
	LevelVeryHigh = "Very High"
	LevelHigh     = "High"
	LevelMedium   = "Medium"
	LevelLow      = "Low"
	LevelVeryLow  = "Very Low"
)

// Thresholds that map a score to a trust level (inclusive lower bounds).
// These are fixed constants, not configuration.
const (
	ThresholdVeryHigh = 0.9
	ThresholdHigh     = 0.5
	ThresholdMedium   = 0.25
	ThresholdLow      = 0.1
)

// Score converts a validated oracle answer into a trust score in [0, 1].
//
// hops is the shortest-path distance; nil means no path exists. paths is
// the number of distinct shortest paths, when the oracle reported one;
// nil otherwise.
//
// Formula:
//
//	hops == 0            → 1.0 (self)
//	hops == nil          → 0   (no path, no trust)
//	base  = weight(min(hops, 4))
//	bonus = min(perPath(min(hops,4)) * (paths-1), maxBonus)
//	        only when paths > 1 and hops > 1; 0 otherwise
//	score = clamp01(base + bonus)
//
// The base weight models decay with distance; the bonus rewards redundant
// shortest paths (independent corroboration) but is capped so redundancy
// never fully offsets distance. A direct follow (hops == 1) takes no
// bonus: it already carries the maximal non-self weight.
func Score(hops, paths *int, cfg Config) float64 {
	if hops == nil {
		return 0
	}
	if *hops == 0 {
		return 1.0
	}

	hopKey := *hops
	if hopKey > maxModeledHops {
		hopKey = maxModeledHops
	}

	base := resolve(cfg.DistanceWeights, defaultDistanceWeights, hopKey, fallbackWeight)

	var bonus float64
	if paths != nil && *paths > 1 && *hops > 1 {
		bonus = cfg.PathBonus.valueFor(hopKey) * float64(*paths-1)
		if limit := cfg.maxBonus(); bonus > limit {
			bonus = limit
		}
	}

	return clamp01(base + bonus)
}

// Level maps a score to its qualitative label. A nil score (no answer
// available) maps to LevelUnknown.
func Level(score *float64) string {
	if score == nil {
		return LevelUnknown
	}
	switch {
	case *score >= ThresholdVeryHigh:
		return LevelVeryHigh
	case *score >= ThresholdHigh:
		return LevelHigh
	case *score >= ThresholdMedium:
		return LevelMedium
	case *score >= ThresholdLow:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
