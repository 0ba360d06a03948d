package weft

import (
	"strconv"
	"strings"
)

// bestTracker remembers the most favorable raw value seen per display name.
type bestTracker struct {
	best map[string]float64
}

func newBestTracker() *bestTracker {
	return &bestTracker{best: make(map[string]float64)}
}

// consider reports whether value strictly improves on the stored best for
// name under the given goal, updating the stored best when it does. The first
// numeric value under a goal always counts as an improvement. Non-numeric
// values and GoalNone never do.
func (t *bestTracker) consider(name string, goal Goal, value any) bool {
	if goal == GoalNone {
		return false
	}
	f, ok := toFloat(value)
	if !ok {
		return false
	}

	prev, seen := t.best[name]
	if !seen {
		t.best[name] = f
		return true
	}

	improved := f > prev
	if goal == GoalLowerIsBetter {
		improved = f < prev
	}
	if improved {
		t.best[name] = f
	}
	return improved
}

// toFloat coerces a raw value to float64 for comparison. Numeric strings are
// accepted because regex-parsed records carry their captures as strings.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
