package capabilities

import (
	"slices"

	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

var pageLoadStrategies = []string{PageLoadNone, PageLoadEager, PageLoadNormal}

var promptBehaviors = []string{"dismiss", "accept", "dismiss and notify", "accept and notify", "ignore"}

var proxyTypes = []string{"pac", "direct", "autodetect", "system", "manual"}

// Validate checks the shape of every value in s and returns a copy with
// null entries removed. Unrecognized names pass through untouched.
func Validate(s Set) (Set, error) {
	out := make(Set, len(s))
	for name, value := range s {
		if value == nil {
			continue
		}
		if err := validateOne(name, value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func validateOne(name string, value any) error {
	switch name {
	case AcceptInsecureCerts, SetWindowRect, StrictFileInteractability:
		if _, ok := value.(bool); !ok {
			return wderr.Invalid("capability %q must be a boolean, got %T", name, value)
		}
	case BrowserName, BrowserVersion, PlatformName:
		if _, ok := value.(string); !ok {
			return wderr.Invalid("capability %q must be a string, got %T", name, value)
		}
	case PageLoadStrategy:
		s, ok := value.(string)
		if !ok || !slices.Contains(pageLoadStrategies, s) {
			return wderr.Invalid("capability %q must be one of %v, got %v", name, pageLoadStrategies, value)
		}
	case UnhandledPromptBehavior:
		s, ok := value.(string)
		if !ok || !slices.Contains(promptBehaviors, s) {
			return wderr.Invalid("capability %q must be one of %v, got %v", name, promptBehaviors, value)
		}
	case Proxy:
		return validateProxy(value)
	case TimeoutsKey:
		m, ok := value.(map[string]any)
		if !ok {
			return wderr.Invalid("capability %q must be an object, got %T", name, value)
		}
		if _, err := ParseTimeouts(m, DefaultTimeouts()); err != nil {
			return err
		}
	}
	return nil
}

func validateProxy(value any) error {
	proxy, ok := value.(map[string]any)
	if !ok {
		return wderr.Invalid("proxy must be an object, got %T", value)
	}
	for key, v := range proxy {
		switch key {
		case "proxyType":
			s, ok := v.(string)
			if !ok || !slices.Contains(proxyTypes, s) {
				return wderr.Invalid("proxyType must be one of %v, got %v", proxyTypes, v)
			}
		case "proxyAutoconfigUrl", "ftpProxy", "httpProxy", "sslProxy", "socksProxy":
			if _, ok := v.(string); !ok {
				return wderr.Invalid("proxy %q must be a string, got %T", key, v)
			}
		case "socksVersion":
			n, ok := integer(v)
			if !ok || n < 0 || n > 255 {
				return wderr.Invalid("socksVersion must be an integer between 0 and 255, got %v", v)
			}
		case "noProxy":
			list, ok := v.([]any)
			if !ok {
				return wderr.Invalid("noProxy must be an array, got %T", v)
			}
			for _, host := range list {
				if _, ok := host.(string); !ok {
					return wderr.Invalid("noProxy entries must be strings, got %T", host)
				}
			}
		default:
			return wderr.Invalid("unknown proxy field %q", key)
		}
	}

	switch proxy["proxyType"] {
	case nil:
		return wderr.Invalid("proxy requires a proxyType")
	case "pac":
		if _, ok := proxy["proxyAutoconfigUrl"]; !ok {
			return wderr.Invalid("pac proxy requires proxyAutoconfigUrl")
		}
	case "manual":
		_, hasSocks := proxy["socksProxy"]
		_, hasVersion := proxy["socksVersion"]
		if hasSocks != hasVersion {
			return wderr.Invalid("socksProxy and socksVersion must be given together")
		}
	}
	return nil
}
