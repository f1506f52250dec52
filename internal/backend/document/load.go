package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

const (
	aboutBlank  = "about:blank"
	aboutSrcdoc = "about:srcdoc"
	emptyHTML   = "<html><head></head><body></body></html>"
)

// parseURL resolves raw against base and rejects schemes the backend cannot
// load.
func parseURL(raw string, base *url.URL) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", raw, err, backend.ErrInvalidURL)
	}
	if base != nil && u.Scheme == "" {
		u = base.ResolveReference(u)
	}
	switch u.Scheme {
	case "about":
		if u.Opaque != "blank" {
			return nil, fmt.Errorf("%q: %w", raw, backend.ErrInvalidURL)
		}
	case "data":
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%q has no host: %w", raw, backend.ErrInvalidURL)
		}
	default:
		return nil, fmt.Errorf("%q: unsupported scheme %q: %w", raw, u.Scheme, backend.ErrInvalidURL)
	}
	return u, nil
}

func blankDocument(u *url.URL) *document {
	root, _ := html.Parse(strings.NewReader(emptyHTML))
	return &document{url: u, root: root}
}

func (b *Backend) load(ctx context.Context, u *url.URL) (*document, error) {
	switch u.Scheme {
	case "about":
		return blankDocument(u), nil
	case "data":
		mediaType, body, err := decodeDataURL(u)
		if err != nil {
			return nil, err
		}
		return parseDocument(u, mediaType, bytes.NewReader(body))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", u, err)
	}
	return b.fetch(ctx, req)
}

// fetch performs req and parses the response as the next document.
func (b *Backend) fetch(ctx context.Context, req *http.Request) (*document, error) {
	if b.opts.UserAgent != "" {
		req.Header.Set("User-Agent", b.opts.UserAgent)
	}
	b.logger.Debug("loading document", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := b.opts.Client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("load %s: %w", req.URL, ctxErr)
		}
		return nil, fmt.Errorf("load %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b.logger.Warn("document loaded with error status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", resp.Request.URL.String()))
	}

	doc, err := parseDocument(resp.Request.URL, resp.Header.Get("Content-Type"), io.LimitReader(resp.Body, b.opts.MaxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("read %s: %w", req.URL, ctxErr)
		}
		return nil, err
	}
	return doc, nil
}

// parseDocument builds a document from a response body. Bodies that are not
// HTML are shown as preformatted text.
func parseDocument(u *url.URL, contentType string, r io.Reader) (*document, error) {
	if contentType != "" && !isHTML(contentType) {
		text, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read body of %s: %w", u, err)
		}
		r = strings.NewReader("<html><head></head><body><pre>" + html.EscapeString(string(text)) + "</pre></body></html>")
	}
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", u, err)
	}
	return &document{url: u, root: root}, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// decodeDataURL returns the media type and payload of an RFC 2397 URL.
func decodeDataURL(u *url.URL) (string, []byte, error) {
	raw := u.Opaque
	if u.RawQuery != "" || u.ForceQuery {
		raw += "?" + u.RawQuery
	}
	meta, payload, ok := strings.Cut(raw, ",")
	if !ok {
		return "", nil, fmt.Errorf("data url has no payload: %w", backend.ErrInvalidURL)
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	if meta == "" {
		meta = "text/plain;charset=US-ASCII"
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data url payload: %v: %w", err, backend.ErrInvalidURL)
	}
	if !isBase64 {
		return meta, []byte(data), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("data url base64 payload: %v: %w", err, backend.ErrInvalidURL)
	}
	return meta, decoded, nil
}

func (b *Backend) loadFrame(ctx context.Context, parent *document, owner *html.Node) (*document, error) {
	if srcdoc, ok := attr(owner, "srcdoc"); ok {
		u, _ := url.Parse(aboutSrcdoc)
		return parseDocument(u, "text/html", strings.NewReader(srcdoc))
	}
	src, _ := attr(owner, "src")
	if strings.TrimSpace(src) == "" {
		u, _ := url.Parse(aboutBlank)
		return blankDocument(u), nil
	}
	u, err := parseURL(src, parent.url)
	if err != nil {
		return nil, err
	}
	return b.load(ctx, u)
}

func frameElements(root *html.Node) []*html.Node {
	return goquery.NewDocumentFromNode(root).Find("iframe, frame").Nodes
}

func isFrameElement(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "iframe" || n.Data == "frame")
}
