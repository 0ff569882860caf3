package scanner

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"textveil/internal/model"
	"textveil/internal/present"
)

// DefaultMinTextLength is the minimum number of characters an element's text
// must have to become a candidate. Shorter strings (labels, counters,
// timestamps) carry no classifiable meaning.
const DefaultMinTextLength = 10

// skipTags are element types that never contain user-facing prose worth
// classifying: executable/structural content, media, form controls, and
// navigation/chrome landmarks. Their entire subtrees are skipped.
var skipTags = map[string]struct{}{
	// Document structure and executable content.
	"head": {}, "title": {}, "meta": {}, "link": {}, "base": {},
	"script": {}, "style": {}, "noscript": {}, "template": {},

	// Media and embeds.
	"img": {}, "picture": {}, "video": {}, "audio": {}, "source": {},
	"track": {}, "svg": {}, "canvas": {}, "iframe": {}, "object": {},
	"embed": {},

	// Form controls.
	"input": {}, "textarea": {}, "select": {}, "option": {}, "button": {},
	"label": {}, "datalist": {},

	// Navigation and chrome landmarks.
	"nav": {}, "header": {}, "footer": {}, "aside": {}, "menu": {},
}

// Scanner finds text-bearing elements in a document or subtree.
type Scanner struct {
	// minTextLength is the candidate length threshold in runes.
	minTextLength int

	// skip is an injected predicate for elements the pipeline already
	// owns (pending/processing/done). The scheduler supplies its
	// lifecycle check here so discovery and state stay decoupled.
	skip func(*html.Node) bool

	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMinTextLength sets the candidate length threshold.
func WithMinTextLength(n int) Option {
	return func(s *Scanner) {
		if n >= 0 {
			s.minTextLength = n
		}
	}
}

// WithSkipFunc sets the already-owned-element predicate.
func WithSkipFunc(skip func(*html.Node) bool) Option {
	return func(s *Scanner) {
		s.skip = skip
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		minTextLength: DefaultMinTextLength,
		skip:          func(*html.Node) bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// FindCandidates walks root and returns a Fragment for every qualifying
// element. Qualification, per element: not a structural/non-content tag, not
// injected by textveil, currently visible, own text (or full text when
// childless) at least the length threshold, and not already owned by the
// pipeline.
func (s *Scanner) FindCandidates(root *html.Node) []*model.Fragment {
	if root == nil {
		return nil
	}

	var fragments []*model.Fragment
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, structural := skipTags[n.Data]; structural {
				return
			}
			if isInjected(n) || isHidden(n) {
				return
			}
			if text, ok := s.candidateText(n); ok && !s.skip(n) {
				fragments = append(fragments, model.NewFragment(text, n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	s.logger.Debug("scan pass complete", "candidates", len(fragments))
	return fragments
}

// candidateText extracts the element's own direct text, or its full text
// when it has no element children, and reports whether it meets the length
// threshold. Using own text keeps a container from swallowing the verdicts
// of the nested elements that actually carry the prose.
func (s *Scanner) candidateText(n *html.Node) (string, bool) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	text := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(text) < s.minTextLength {
		return "", false
	}
	return text, true
}

// isInjected reports whether textveil itself produced this element.
func isInjected(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == present.MarkerAttr {
			return true
		}
	}
	return false
}

// isHidden approximates visibility for a non-rendering scanner: the hidden
// attribute, aria-hidden, and the inline styles that unconditionally remove
// an element from view. A true rendered-box check needs a layout engine.
func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") ||
				strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}
