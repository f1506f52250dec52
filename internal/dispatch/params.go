package dispatch

import (
	"math"

	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

func stringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", wderr.Invalid("missing %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", wderr.Invalid("%q must be a string, got %T", key, raw)
	}
	return s, nil
}

func integer(v float64) (int, bool) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
