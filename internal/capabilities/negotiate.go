package capabilities

import (
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// reservedPrefixes are vendor prefixes that belong to specific browsers.
// Extension capabilities under one of them only match a backend that lists
// the prefix as understood; every other extension passes through.
var reservedPrefixes = []string{"goog", "moz", "ms", "safari", "webkit", "wpe", "se"}

// Result is the outcome of a successful negotiation.
type Result struct {
	Capabilities Set
	Timeouts     Timeouts
	// Candidate is the index into FirstMatch that was selected.
	Candidate int
}

// Negotiate validates req, merges alwaysMatch with each firstMatch entry in
// order and returns the first merged candidate the backend supports. It has
// no side effects.
func Negotiate(req Request, support backend.Support) (Result, error) {
	always, err := Validate(req.AlwaysMatch)
	if err != nil {
		return Result{}, err
	}
	firstMatch := req.FirstMatch
	if len(firstMatch) == 0 {
		firstMatch = []Set{{}}
	}

	candidates := make([]Set, 0, len(firstMatch))
	for _, entry := range firstMatch {
		validated, err := Validate(entry)
		if err != nil {
			return Result{}, err
		}
		merged, err := merge(always, validated)
		if err != nil {
			return Result{}, err
		}
		candidates = append(candidates, merged)
	}

	var reasons []string
	for i, candidate := range candidates {
		if reason := mismatch(candidate, support); reason != "" {
			reasons = append(reasons, reason)
			continue
		}
		return finalize(candidate, support, i)
	}
	return Result{}, wderr.New(wderr.SessionNotCreated, "no capabilities candidate matched: %s", strings.Join(reasons, "; "))
}

func merge(always, first Set) (Set, error) {
	merged := maps.Clone(always)
	for name, value := range first {
		if _, dup := always[name]; dup {
			return nil, wderr.Invalid("capability %q appears in both alwaysMatch and firstMatch", name)
		}
		merged[name] = value
	}
	return merged, nil
}

// mismatch returns why candidate cannot be served, or "" when it can.
func mismatch(candidate Set, support backend.Support) string {
	for name, value := range candidate {
		switch name {
		case BrowserName:
			if !strings.EqualFold(value.(string), support.BrowserName) {
				return "browserName " + value.(string) + " is not available"
			}
		case BrowserVersion:
			if !versionMatches(value.(string), support.BrowserVersion) {
				return "browserVersion " + value.(string) + " is not available"
			}
		case PlatformName:
			if !strings.EqualFold(value.(string), support.PlatformName) {
				return "platformName " + value.(string) + " is not available"
			}
		case AcceptInsecureCerts:
			if value.(bool) && !support.AcceptInsecureCerts {
				return "insecure certificates are not supported"
			}
		case Proxy:
			if !support.Proxy {
				return "proxy configuration is not supported"
			}
		default:
			if IsExtension(name) {
				prefix := ExtensionPrefix(name)
				if slices.Contains(reservedPrefixes, prefix) && !slices.Contains(support.ExtensionPrefixes, prefix) {
					return "extension capability " + name + " is not understood"
				}
			}
		}
	}
	return ""
}

// versionMatches compares a requested browserVersion with the backend's. The
// request may be a semver constraint (">= 100", "~1.2"); anything that does
// not parse as one must match exactly.
func versionMatches(requested, available string) bool {
	if available == "" {
		return false
	}
	if requested == available {
		return true
	}
	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		return false
	}
	version, err := semver.NewVersion(available)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}

func finalize(candidate Set, support backend.Support, index int) (Result, error) {
	timeouts := DefaultTimeouts()
	if raw, ok := candidate[TimeoutsKey].(map[string]any); ok {
		parsed, err := ParseTimeouts(raw, timeouts)
		if err != nil {
			return Result{}, err
		}
		timeouts = parsed
	}

	caps := Set{
		BrowserName:               support.BrowserName,
		BrowserVersion:            support.BrowserVersion,
		PlatformName:              strings.ToLower(support.PlatformName),
		AcceptInsecureCerts:       false,
		PageLoadStrategy:          PageLoadNormal,
		Proxy:                     map[string]any{},
		SetWindowRect:             false,
		StrictFileInteractability: false,
		UnhandledPromptBehavior:   "dismiss and notify",
	}
	for name, value := range candidate {
		switch name {
		case BrowserName, BrowserVersion, PlatformName:
			// keep what the backend reports
		default:
			caps[name] = value
		}
	}
	caps[TimeoutsKey] = timeouts.Map()
	return Result{Capabilities: caps, Timeouts: timeouts, Candidate: index}, nil
}
