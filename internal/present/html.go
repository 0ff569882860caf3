package present

import (
	"log/slog"
	"sync"

	"golang.org/x/net/html"

	"textveil/internal/model"
)

// HTMLPresenter applies verdicts to a parsed HTML tree by swapping the
// children of blocked elements for a placeholder text node.
//
// Design decision: we detach and retain the original child nodes rather
// than serializing them to a string because reattachment preserves the
// subtree exactly, including nested markup the fragment text was extracted
// around. The retained nodes live only as long as the presenter (one scan
// session); nothing is persisted.
type HTMLPresenter struct {
	// allowReveal controls whether blocked content stays recoverable.
	// When false, the original children are discarded at block time and
	// Reveal refuses.
	allowReveal bool

	// placeholder is the replacement text for blocked fragments.
	placeholder string

	// hidden maps blocked elements to their detached original children.
	hidden map[*html.Node][]*html.Node

	// blocked counts applied block verdicts.
	blocked int

	// mu guards hidden and blocked. Apply is only ever called from the
	// scheduling loop, but Reveal may come from elsewhere.
	mu sync.Mutex

	logger *slog.Logger
}

// HTMLPresenterOption configures an HTMLPresenter.
type HTMLPresenterOption func(*HTMLPresenter)

// WithAllowReveal controls whether blocked content can be revealed later.
func WithAllowReveal(allow bool) HTMLPresenterOption {
	return func(p *HTMLPresenter) {
		p.allowReveal = allow
	}
}

// WithPlaceholder sets custom placeholder text.
func WithPlaceholder(text string) HTMLPresenterOption {
	return func(p *HTMLPresenter) {
		p.placeholder = text
	}
}

// WithPresenterLogger sets a custom logger.
func WithPresenterLogger(logger *slog.Logger) HTMLPresenterOption {
	return func(p *HTMLPresenter) {
		p.logger = logger
	}
}

// NewHTMLPresenter creates a presenter.
func NewHTMLPresenter(opts ...HTMLPresenterOption) *HTMLPresenter {
	p := &HTMLPresenter{
		allowReveal: true,
		placeholder: DefaultPlaceholder,
		hidden:      make(map[*html.Node][]*html.Node),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Apply implements Sink. Allow verdicts are no-ops; block verdicts replace
// the element's children with the placeholder and mark the element so the
// scanner never rediscovers it.
func (p *HTMLPresenter) Apply(fragment *model.Fragment, verdict model.Verdict) error {
	if !verdict.ShouldBlock {
		return nil
	}
	el := fragment.Element
	if el == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, already := p.hidden[el]; already {
		// The exactly-once contract makes this unreachable; refuse to
		// double-swap rather than corrupt the retained children.
		p.logger.Warn("verdict re-applied to blocked element", "hash", fragment.ContentHash)
		return nil
	}

	original := detachChildren(el)
	if p.allowReveal {
		p.hidden[el] = original
	}

	text := p.placeholder
	if p.allowReveal {
		text += RevealHint
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	setAttr(el, MarkerAttr, string(verdict.MatchedBy))

	p.blocked++
	p.logger.Debug("fragment veiled",
		"hash", fragment.ContentHash,
		"matched_by", verdict.MatchedBy,
	)
	return nil
}

// Reveal restores a blocked element's original content. Returns false when
// reveal is disallowed or the element was never blocked. This is the only
// backward lifecycle transition, and it never re-enters the pipeline.
func (p *HTMLPresenter) Reveal(el *html.Node) bool {
	if !p.allowReveal {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	original, ok := p.hidden[el]
	if !ok {
		return false
	}
	delete(p.hidden, el)

	detachChildren(el)
	for _, child := range original {
		el.AppendChild(child)
	}
	removeAttr(el, MarkerAttr)
	return true
}

// Blocked returns the number of block verdicts applied.
func (p *HTMLPresenter) Blocked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocked
}

// detachChildren removes and returns all children of el in order.
func detachChildren(el *html.Node) []*html.Node {
	var children []*html.Node
	for el.FirstChild != nil {
		child := el.FirstChild
		el.RemoveChild(child)
		children = append(children, child)
	}
	return children
}

// setAttr sets or replaces an attribute on el.
func setAttr(el *html.Node, key, val string) {
	for i := range el.Attr {
		if el.Attr[i].Key == key {
			el.Attr[i].Val = val
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: key, Val: val})
}

// removeAttr deletes an attribute from el.
func removeAttr(el *html.Node, key string) {
	for i := range el.Attr {
		if el.Attr[i].Key == key {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			return
		}
	}
}
