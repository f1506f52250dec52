package capabilities

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

const maxSafeInteger = 1<<53 - 1

// Default session timeouts.
const (
	DefaultScriptTimeout   = 30 * time.Second
	DefaultPageLoadTimeout = 300 * time.Second
	DefaultImplicitWait    = 0
)

// Timeouts holds the three session timeouts. A nil Script or PageLoad means
// the operation is unbounded.
type Timeouts struct {
	Script   *time.Duration
	PageLoad *time.Duration
	Implicit time.Duration
}

// DefaultTimeouts returns the timeouts a new session starts with.
func DefaultTimeouts() Timeouts {
	script, pageLoad := DefaultScriptTimeout, DefaultPageLoadTimeout
	return Timeouts{Script: &script, PageLoad: &pageLoad, Implicit: DefaultImplicitWait}
}

// Map renders t in wire form: milliseconds, null for unbounded.
func (t Timeouts) Map() map[string]any {
	return map[string]any{
		"script":   durationMillis(t.Script),
		"pageLoad": durationMillis(t.PageLoad),
		"implicit": t.Implicit.Milliseconds(),
	}
}

func durationMillis(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return d.Milliseconds()
}

var legacyTimeoutTypes = map[string]string{
	"script":    "script",
	"page load": "pageLoad",
	"pageLoad":  "pageLoad",
	"implicit":  "implicit",
}

// ParseTimeouts applies the keys present in raw on top of base. It accepts
// the W3C object form and the legacy {"type": ..., "ms": ...} form. Unknown
// keys are ignored.
func ParseTimeouts(raw map[string]any, base Timeouts) (Timeouts, error) {
	if typ, ok := raw["type"]; ok {
		name, isString := typ.(string)
		key, known := legacyTimeoutTypes[name]
		if !isString || !known {
			return base, wderr.Invalid("unknown timeout type %v", typ)
		}
		ms, present := raw["ms"]
		if !present {
			return base, wderr.Invalid("legacy timeout payload is missing \"ms\"")
		}
		raw = map[string]any{key: ms}
	}

	out := base
	for key, value := range raw {
		switch key {
		case "script", "pageLoad":
			d, err := optionalDuration(key, value)
			if err != nil {
				return base, err
			}
			if key == "script" {
				out.Script = d
			} else {
				out.PageLoad = d
			}
		case "implicit":
			d, err := optionalDuration(key, value)
			if err != nil {
				return base, err
			}
			if d == nil {
				return base, wderr.Invalid("implicit timeout may not be null")
			}
			out.Implicit = *d
		}
	}
	return out, nil
}

func optionalDuration(key string, value any) (*time.Duration, error) {
	if value == nil {
		return nil, nil
	}
	ms, ok := integer(value)
	if !ok || ms < 0 || ms > maxSafeInteger {
		return nil, wderr.Invalid("timeout %q must be an integer between 0 and %d, got %v", key, int64(maxSafeInteger), value)
	}
	d := time.Duration(math.MaxInt64)
	if ms < int64(math.MaxInt64/time.Millisecond) {
		d = time.Duration(ms) * time.Millisecond
	}
	return &d, nil
}

// integer converts JSON numeric values to int64, rejecting fractions.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > maxSafeInteger {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
