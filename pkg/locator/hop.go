package locator

import (
	"regexp"
	"strconv"
	"strings"
)

// HopKind tags the variants of Hop.
type HopKind int

const (
	// HopStep is a plain DOM step such as "div[2]".
	HopStep HopKind = iota
	// HopIframe is a step selecting an iframe element; resolution descends
	// into its document.
	HopIframe
	// HopShadow is a descent into the shadow root of the element addressed
	// so far. Its steps live in Segment.
	HopShadow
)

func (k HopKind) String() string {
	switch k {
	case HopStep:
		return "step"
	case HopIframe:
		return "iframe"
	case HopShadow:
		return "shadow"
	default:
		return "unknown"
	}
}

// Hop is one transition in a locator path.
type Hop struct {
	Kind HopKind
	// Tag is the element name of a step, "*" for the wildcard, and empty when
	// the step is not of the form tag[n] (it is then used verbatim).
	Tag string
	// Index is the 1-based ordinal, 0 when absent.
	Index int
	// Raw is the token as written in the path.
	Raw string
	// Segment holds the steps of a HopShadow.
	Segment []Hop
}

// Path is a parsed locator path.
type Path []Hop

var (
	iframeStepRe = regexp.MustCompile(`(?i)^iframe(\[[^\]]+])?$`)
	tagStepRe    = regexp.MustCompile(`^([a-zA-Z*][\w-]*)(?:\[(\d+)])?$`)
)

// IsIframeStep reports whether token selects an iframe element.
func IsIframeStep(token string) bool {
	return iframeStepRe.MatchString(token)
}

func parseStep(token string) Hop {
	hop := Hop{Kind: HopStep, Raw: token}
	if IsIframeStep(token) {
		hop.Kind = HopIframe
	}
	m := tagStepRe.FindStringSubmatch(token)
	if m == nil {
		return hop
	}
	hop.Tag = m[1]
	if m[2] != "" {
		hop.Index, _ = strconv.Atoi(m[2])
	}
	return hop
}

// ParsePath splits a structural path into hops. A doubled separator starts a
// shadow hop whose segment runs to the next doubled separator, iframe step or
// the end of the path. A shadow hop with no steps fails with
// ErrEmptyShadowSegment.
func ParsePath(path string) (Path, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	tokens := strings.Split(path, "/")

	var hops Path
	for i := 1; i < len(tokens); i++ {
		token := tokens[i]
		if token != "" {
			hops = append(hops, parseStep(token))
			continue
		}

		j := i + 1
		var segment []Hop
		for ; j < len(tokens); j++ {
			t := tokens[j]
			if t == "" || IsIframeStep(t) {
				break
			}
			segment = append(segment, parseStep(t))
		}
		if len(segment) == 0 {
			return nil, ErrEmptyShadowSegment
		}
		hops = append(hops, Hop{Kind: HopShadow, Segment: segment})
		i = j - 1
	}
	return hops, nil
}

// String renders the path back into its normalized form.
func (p Path) String() string {
	var b strings.Builder
	for _, hop := range p {
		if hop.Kind == HopShadow {
			b.WriteString("/")
			for _, step := range hop.Segment {
				b.WriteString("/")
				b.WriteString(step.Raw)
			}
			continue
		}
		b.WriteString("/")
		b.WriteString(hop.Raw)
	}
	return b.String()
}

// CSS translates a step into a CSS selector. tag[n] uses type-ordinal
// semantics (nth-of-type) while *[n] is positional (nth-child). Steps that do
// not look like tag[n] pass through unchanged.
func (h Hop) CSS() string {
	switch {
	case h.Tag == "":
		return h.Raw
	case h.Tag == "*" && h.Index > 0:
		return "*:nth-child(" + strconv.Itoa(h.Index) + ")"
	case h.Tag == "*":
		return "*"
	case h.Index > 0:
		return h.Tag + ":nth-of-type(" + strconv.Itoa(h.Index) + ")"
	default:
		return h.Tag
	}
}

// StrictSelector joins the steps as a parent > child chain.
func StrictSelector(steps []Hop) string {
	return joinCSS(steps, " > ")
}

// DescendantSelector joins the steps with descendant combinators.
func DescendantSelector(steps []Hop) string {
	return joinCSS(steps, " ")
}

func joinCSS(steps []Hop, sep string) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.CSS()
	}
	return strings.Join(parts, sep)
}

func rawSteps(steps []Hop) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Raw
	}
	return out
}
