package document

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var skippedText = map[string]bool{
	"head": true, "script": true, "style": true, "template": true, "noscript": true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// renderedText approximates an element's rendered text. Hidden and script
// content is skipped, block boundaries become line breaks and whitespace
// collapses outside pre and textarea.
func renderedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node, preserve bool)
	walk = func(n *html.Node, preserve bool) {
		switch n.Type {
		case html.TextNode:
			if preserve {
				sb.WriteString(n.Data)
			} else {
				sb.WriteString(collapseSpace(n.Data))
			}
			return
		case html.ElementNode:
			if skippedText[n.Data] || n.Data == "input" || hasAttr(n, "hidden") {
				return
			}
			preserve = preserve || n.Data == "pre" || n.Data == "textarea"
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, preserve)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(n, false)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// textContent concatenates every descendant text node.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
