// Package capabilities validates, merges and matches the capabilities a
// client asks for when it opens a session.
package capabilities

import (
	"fmt"
	"strings"

	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// Capability names recognized by the negotiator.
const (
	AcceptInsecureCerts       = "acceptInsecureCerts"
	BrowserName               = "browserName"
	BrowserVersion            = "browserVersion"
	PlatformName              = "platformName"
	PageLoadStrategy          = "pageLoadStrategy"
	Proxy                     = "proxy"
	SetWindowRect             = "setWindowRect"
	StrictFileInteractability = "strictFileInteractability"
	TimeoutsKey               = "timeouts"
	UnhandledPromptBehavior   = "unhandledPromptBehavior"
)

// Page load strategies.
const (
	PageLoadNone   = "none"
	PageLoadEager  = "eager"
	PageLoadNormal = "normal"
)

// Set is a mapping of capability name to value.
type Set map[string]any

// Request is a capabilities request: capabilities every candidate must carry
// and an ordered list of alternatives.
type Request struct {
	AlwaysMatch Set
	FirstMatch  []Set
}

// ParseRequest extracts a Request from a New Session payload. It accepts
// {"capabilities": {"alwaysMatch": ..., "firstMatch": [...]}} and, when that
// is absent, the legacy {"desiredCapabilities": {...}} which is treated as
// alwaysMatch.
func ParseRequest(body map[string]any) (Request, error) {
	raw, ok := body["capabilities"]
	if !ok || raw == nil {
		desired, ok := body["desiredCapabilities"]
		if !ok || desired == nil {
			return Request{AlwaysMatch: Set{}, FirstMatch: []Set{{}}}, nil
		}
		always, err := asSet("desiredCapabilities", desired)
		if err != nil {
			return Request{}, err
		}
		return Request{AlwaysMatch: always, FirstMatch: []Set{{}}}, nil
	}

	caps, ok := raw.(map[string]any)
	if !ok {
		return Request{}, wderr.Invalid("capabilities must be an object, got %T", raw)
	}

	req := Request{AlwaysMatch: Set{}}
	if always, ok := caps["alwaysMatch"]; ok && always != nil {
		set, err := asSet("alwaysMatch", always)
		if err != nil {
			return Request{}, err
		}
		req.AlwaysMatch = set
	}

	first, ok := caps["firstMatch"]
	if !ok || first == nil {
		req.FirstMatch = []Set{{}}
		return req, nil
	}
	list, ok := first.([]any)
	if !ok {
		return Request{}, wderr.Invalid("firstMatch must be an array, got %T", first)
	}
	if len(list) == 0 {
		return Request{}, wderr.Invalid("firstMatch must contain at least one entry")
	}
	for i, entry := range list {
		set, err := asSet(fmt.Sprintf("firstMatch[%d]", i), entry)
		if err != nil {
			return Request{}, err
		}
		req.FirstMatch = append(req.FirstMatch, set)
	}
	return req, nil
}

func asSet(field string, v any) (Set, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, wderr.Invalid("%s must be an object, got %T", field, v)
	}
	return Set(m), nil
}

// IsExtension reports whether name is a vendor extension capability
// ("prefix:name").
func IsExtension(name string) bool {
	return strings.Contains(name, ":")
}

// ExtensionPrefix returns the vendor prefix of an extension capability.
func ExtensionPrefix(name string) string {
	prefix, _, _ := strings.Cut(name, ":")
	return prefix
}
