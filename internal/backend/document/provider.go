package document

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// BrowserName and Version identify the document backend during capability
// negotiation.
const (
	BrowserName = "document"
	Version     = "1.4.0"
)

// ProviderConfig configures the HTTP client each session's backend uses.
type ProviderConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Provider launches one document backend per session.
type Provider struct {
	cfg    ProviderConfig
	logger *zap.Logger
}

// NewProvider creates a provider.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, logger: logger}
}

// Support reports what the document backend can satisfy.
func (p *Provider) Support() backend.Support {
	return backend.Support{
		BrowserName:         BrowserName,
		BrowserVersion:      Version,
		PlatformName:        runtime.GOOS,
		ExtensionPrefixes:   []string{"wdm"},
		AcceptInsecureCerts: true,
		Proxy:               true,
	}
}

// Launch builds a backend whose HTTP client honours the session's
// acceptInsecureCerts and proxy capabilities.
func (p *Provider) Launch(ctx context.Context, sessionID string, caps map[string]any) (backend.Backend, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure, _ := caps["acceptInsecureCerts"].(bool); insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if proxy, ok := caps["proxy"].(map[string]any); ok {
		fn, err := proxyFunc(proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = fn
	}

	return New(Options{
		Client:       &http.Client{Transport: transport, Timeout: p.cfg.RequestTimeout},
		UserAgent:    p.cfg.UserAgent,
		MaxBodyBytes: p.cfg.MaxBodyBytes,
		Logger:       p.logger.With(zap.String("session_id", sessionID)),
	}), nil
}

// Close is a no-op; backends are closed with their sessions.
func (p *Provider) Close() error {
	return nil
}

func proxyFunc(proxy map[string]any) (func(*http.Request) (*url.URL, error), error) {
	kind, _ := proxy["proxyType"].(string)
	switch kind {
	case "", "direct":
		return nil, nil
	case "system":
		return http.ProxyFromEnvironment, nil
	case "manual":
	default:
		return nil, fmt.Errorf("proxy type %q: %w", kind, backend.ErrUnsupported)
	}

	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL(proxy["httpProxy"]),
		HTTPSProxy: proxyURL(proxy["sslProxy"]),
	}
	if hosts, ok := proxy["noProxy"].([]any); ok {
		names := make([]string, 0, len(hosts))
		for _, h := range hosts {
			if s, ok := h.(string); ok {
				names = append(names, s)
			}
		}
		cfg.NoProxy = strings.Join(names, ",")
	}
	fn := cfg.ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return fn(r.URL)
	}, nil
}

func proxyURL(v any) string {
	s, _ := v.(string)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return "http://" + s
}
