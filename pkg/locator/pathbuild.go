package locator

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ElementPath is one interactive element found in an HTML snapshot.
type ElementPath struct {
	// Path is a structural path the Resolver accepts.
	Path string
	Tag  string
	// Text is the trimmed visible text or the most descriptive attribute.
	Text string
	// Shadow is true when the path crosses a declarative shadow root.
	Shadow bool
}

const maxPathText = 80

var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"iframe":   true,
}

var interactiveRoles = map[string]bool{
	"button":   true,
	"link":     true,
	"checkbox": true,
	"radio":    true,
	"tab":      true,
	"menuitem": true,
	"option":   true,
	"switch":   true,
	"textbox":  true,
	"combobox": true,
}

// BuildPaths parses an HTML snapshot and lists the structural paths of its
// interactive elements in document order. Steps carry an ordinal only when
// the element has same-tag siblings. A <template shadowrootmode> child
// becomes a shadow hop. Iframe contents are not part of a snapshot, so iframes
// are listed as elements rather than descended into.
func BuildPaths(rawHTML string) ([]ElementPath, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []ElementPath
	walkPaths(doc, "", false, &out)
	return out, nil
}

func walkPaths(parent *html.Node, prefix string, shadow bool, out *[]ElementPath) {
	counts := make(map[string]int)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			counts[c.Data]++
		}
	}

	seen := make(map[string]int)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(c.Data)
		seen[c.Data]++

		if tag == "template" && attr(c, "shadowrootmode") != "" {
			// The host path plus "/" yields the doubled separator.
			walkPaths(c, prefix+"/", true, out)
			continue
		}
		if isSkippedElement(tag) {
			continue
		}

		step := tag
		if counts[c.Data] > 1 {
			step += "[" + strconv.Itoa(seen[c.Data]) + "]"
		}
		path := prefix + "/" + step

		if isInteractive(c) {
			*out = append(*out, ElementPath{
				Path:   path,
				Tag:    tag,
				Text:   describe(c),
				Shadow: shadow,
			})
		}
		if tag != "iframe" {
			walkPaths(c, path, shadow, out)
		}
	}
}

func isSkippedElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "head", "meta", "link", "svg":
		return true
	}
	return false
}

func isInteractive(n *html.Node) bool {
	tag := strings.ToLower(n.Data)
	if interactiveTags[tag] {
		if tag == "input" && strings.EqualFold(attr(n, "type"), "hidden") {
			return false
		}
		return true
	}
	if interactiveRoles[strings.ToLower(attr(n, "role"))] {
		return true
	}
	if attr(n, "onclick") != "" || attr(n, "contenteditable") == "true" {
		return true
	}
	_, hasTab := attrOK(n, "tabindex")
	return hasTab && attr(n, "tabindex") != "-1"
}

func describe(n *html.Node) string {
	for _, key := range []string{"aria-label", "title", "placeholder", "alt"} {
		if v := strings.TrimSpace(attr(n, key)); v != "" {
			return truncate(v)
		}
	}

	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		text = attr(n, "value")
	}
	if text == "" {
		text = attr(n, "name")
	}
	return truncate(text)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxPathText {
		return s
	}
	return string(r[:maxPathText]) + "..."
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
