package capabilities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

var testSupport = backend.Support{
	BrowserName:       "document",
	BrowserVersion:    "1.4.0",
	PlatformName:      "Linux",
	ExtensionPrefixes: []string{"wdm"},
	Proxy:             false,
}

func decode(t *testing.T, payload string) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &body))
	return body
}

func TestParseRequest(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		req, err := ParseRequest(map[string]any{})
		require.NoError(t, err)
		assert.Empty(t, req.AlwaysMatch)
		assert.Len(t, req.FirstMatch, 1)
	})

	t.Run("w3c", func(t *testing.T) {
		req, err := ParseRequest(decode(t, `{"capabilities":{"alwaysMatch":{"browserName":"document"},"firstMatch":[{"platformName":"mac"},{}]}}`))
		require.NoError(t, err)
		assert.Equal(t, "document", req.AlwaysMatch[BrowserName])
		assert.Len(t, req.FirstMatch, 2)
	})

	t.Run("legacy desired capabilities", func(t *testing.T) {
		req, err := ParseRequest(decode(t, `{"desiredCapabilities":{"browserName":"document"}}`))
		require.NoError(t, err)
		assert.Equal(t, "document", req.AlwaysMatch[BrowserName])
	})

	for name, payload := range map[string]string{
		"capabilities not object": `{"capabilities":[]}`,
		"alwaysMatch not object":  `{"capabilities":{"alwaysMatch":1}}`,
		"firstMatch not array":    `{"capabilities":{"firstMatch":{}}}`,
		"firstMatch empty":        `{"capabilities":{"firstMatch":[]}}`,
		"firstMatch entry":        `{"capabilities":{"firstMatch":["x"]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRequest(decode(t, payload))
			assert.True(t, wderr.Is(err, wderr.InvalidArgument), "got %v", err)
		})
	}
}

func TestNegotiateDefaults(t *testing.T) {
	res, err := Negotiate(Request{}, testSupport)
	require.NoError(t, err)

	assert.Equal(t, "document", res.Capabilities[BrowserName])
	assert.Equal(t, "linux", res.Capabilities[PlatformName])
	assert.Equal(t, PageLoadNormal, res.Capabilities[PageLoadStrategy])
	assert.Equal(t, 30*time.Second, *res.Timeouts.Script)
	assert.Equal(t, 300*time.Second, *res.Timeouts.PageLoad)
	assert.Equal(t, time.Duration(0), res.Timeouts.Implicit)
}

func TestNegotiateMalformedValues(t *testing.T) {
	tests := map[string]Set{
		"bool flag":         {AcceptInsecureCerts: "yes"},
		"page load":         {PageLoadStrategy: "fast"},
		"proxy shape":       {Proxy: "http://proxy"},
		"proxy type":        {Proxy: map[string]any{"proxyType": "carrier pigeon"}},
		"proxy unknown key": {Proxy: map[string]any{"proxyType": "direct", "bogus": true}},
		"pac without url":   {Proxy: map[string]any{"proxyType": "pac"}},
		"timeouts negative": {TimeoutsKey: map[string]any{"implicit": -1.0}},
		"timeouts fraction": {TimeoutsKey: map[string]any{"script": 1.5}},
		"browser name type": {BrowserName: 3.0},
	}
	for name, always := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Negotiate(Request{AlwaysMatch: always}, testSupport)
			assert.True(t, wderr.Is(err, wderr.InvalidArgument), "got %v", err)
		})
	}

	t.Run("malformed firstMatch fails whole request", func(t *testing.T) {
		req := Request{FirstMatch: []Set{{}, {PageLoadStrategy: 1.0}}}
		_, err := Negotiate(req, testSupport)
		assert.True(t, wderr.Is(err, wderr.InvalidArgument))
	})

	t.Run("duplicate key", func(t *testing.T) {
		req := Request{AlwaysMatch: Set{BrowserName: "document"}, FirstMatch: []Set{{BrowserName: "document"}}}
		_, err := Negotiate(req, testSupport)
		assert.True(t, wderr.Is(err, wderr.InvalidArgument))
	})
}

func TestNegotiateSelectsFirstSupported(t *testing.T) {
	req := Request{
		AlwaysMatch: Set{PageLoadStrategy: PageLoadEager},
		FirstMatch: []Set{
			{BrowserName: "firefox"},
			{BrowserName: "document", "wdm:trace": true},
			{BrowserName: "document"},
		},
	}
	for i := 0; i < 5; i++ {
		res, err := Negotiate(req, testSupport)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Candidate)
		assert.Equal(t, true, res.Capabilities["wdm:trace"])
		assert.Equal(t, PageLoadEager, res.Capabilities[PageLoadStrategy])
	}
}

func TestNegotiateNoMatch(t *testing.T) {
	tests := map[string]Set{
		"browser":          {BrowserName: "chrome"},
		"platform":         {PlatformName: "windows"},
		"version":          {BrowserVersion: ">= 2.0"},
		"insecure certs":   {AcceptInsecureCerts: true},
		"proxy":            {Proxy: map[string]any{"proxyType": "direct"}},
		"reserved prefix":  {"goog:chromeOptions": map[string]any{}},
	}
	for name, always := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Negotiate(Request{AlwaysMatch: always}, testSupport)
			assert.True(t, wderr.Is(err, wderr.SessionNotCreated), "got %v", err)
		})
	}
}

func TestNegotiatePassThrough(t *testing.T) {
	req := Request{AlwaysMatch: Set{
		"acme:options":  map[string]any{"x": 1.0},
		"customSetting": "kept",
		BrowserVersion:  "~1.4",
		TimeoutsKey:     map[string]any{"implicit": 250.0, "script": nil},
		"ignoredNull":   nil,
	}}
	res, err := Negotiate(req, testSupport)
	require.NoError(t, err)

	assert.Equal(t, "kept", res.Capabilities["customSetting"])
	assert.Contains(t, res.Capabilities, "acme:options")
	assert.NotContains(t, res.Capabilities, "ignoredNull")
	assert.Equal(t, "1.4.0", res.Capabilities[BrowserVersion])
	assert.Equal(t, 250*time.Millisecond, res.Timeouts.Implicit)
	assert.Nil(t, res.Timeouts.Script)
	assert.Equal(t, map[string]any{"script": nil, "pageLoad": int64(300000), "implicit": int64(250)}, res.Capabilities[TimeoutsKey])
}

func TestParseTimeouts(t *testing.T) {
	base := DefaultTimeouts()

	got, err := ParseTimeouts(map[string]any{"pageLoad": 1000.0, "unknown": "ignored"}, base)
	require.NoError(t, err)
	assert.Equal(t, time.Second, *got.PageLoad)
	assert.Equal(t, *base.Script, *got.Script)

	got, err = ParseTimeouts(map[string]any{"type": "implicit", "ms": 500.0}, base)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, got.Implicit)

	got, err = ParseTimeouts(map[string]any{"type": "page load", "ms": json.Number("2000")}, base)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, *got.PageLoad)

	_, err = ParseTimeouts(map[string]any{"implicit": nil}, base)
	assert.True(t, wderr.Is(err, wderr.InvalidArgument))

	_, err = ParseTimeouts(map[string]any{"type": "forever", "ms": 1.0}, base)
	assert.True(t, wderr.Is(err, wderr.InvalidArgument))
}
