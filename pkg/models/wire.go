package models

// ElementKey is the property that identifies a web element reference.
const ElementKey = "element-6066-11e4-a52e-4f735466cecf"

// LegacyElementKey is the JSON Wire Protocol spelling of ElementKey,
// accepted on input only.
const LegacyElementKey = "ELEMENT"

// Response is the envelope around every command result.
type Response struct {
	Value any `json:"value"`
}

// ErrorValue is the value of a failed command's Response.
type ErrorValue struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

// Element is a web element reference in wire form.
type Element map[string]string

// NewElement returns the wire form of an element id.
func NewElement(id string) Element {
	return Element{ElementKey: id}
}

// ElementID extracts the element id from a decoded web element reference.
// It reports false when v is not one.
func ElementID(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{ElementKey, LegacyElementKey} {
		if raw, ok := m[key]; ok {
			id, ok := raw.(string)
			return id, ok
		}
	}
	return "", false
}

// ContainsElement reports whether v, a decoded JSON value, holds a web
// element reference at any depth.
func ContainsElement(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[ElementKey]; ok {
			return true
		}
		if _, ok := t[LegacyElementKey]; ok {
			return true
		}
		for _, item := range t {
			if ContainsElement(item) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if ContainsElement(item) {
				return true
			}
		}
	}
	return false
}
