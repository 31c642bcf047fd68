// Package htmlpage summarizes HTML error pages that upstream gateways return
// in place of a completion, so the decoder can log what the server said.
package htmlpage

import (
	"strings"

	"golang.org/x/net/html"
)

// Summary is the readable part of an error page.
type Summary struct {
	Title string
	Text  string
}

// maxTextRunes bounds Summary.Text; error pages are logged, not stored.
const maxTextRunes = 200

// Summarize parses an HTML document and returns its <title> and the leading
// body text, whitespace collapsed. Unparseable input yields an empty Summary.
func Summarize(input string) Summary {
	node, err := html.Parse(strings.NewReader(input))
	if err != nil || node == nil {
		return Summary{}
	}
	title := collapseSpaces(strings.TrimSpace(findTitle(node)))
	var b strings.Builder
	if body := findFirst(node, "body"); body != nil {
		collectText(&b, body)
	}
	return Summary{Title: title, Text: truncateRunes(collapseSpaces(strings.TrimSpace(b.String())), maxTextRunes)}
}

func findTitle(n *html.Node) string {
	t := findFirst(n, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "head":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
