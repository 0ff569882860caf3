package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Fragment is one discovered unit of candidate text awaiting or having
// received a classification verdict.
//
// Design decision: we keep a reference to the originating HTML node rather
// than copying positional information because the presentation sink needs
// the node itself to apply a verdict, and node pointers double as stable
// identity keys for the element lifecycle map.
type Fragment struct {
	// RawText is the text content as discovered, untrimmed of meaning but
	// whitespace-trimmed at the edges by the scanner.
	RawText string

	// ContentHash is a fixed-width, non-cryptographic fingerprint of the
	// normalized text. It deduplicates analysis only; collisions are
	// tolerable because a collision merely suppresses a redundant
	// classification, never a security decision.
	ContentHash string

	// Element is the HTML node the text was discovered in.
	Element *html.Node
}

// NewFragment builds a Fragment for the given text and element.
// The content hash is computed over the NFC-normalized text so that
// visually identical fragments with different Unicode compositions
// deduplicate to the same hash.
func NewFragment(text string, element *html.Node) *Fragment {
	return &Fragment{
		RawText:     text,
		ContentHash: HashContent(text),
		Element:     element,
	}
}

// HashContent returns the fixed-width content fingerprint for text.
// xxhash64 rendered as 16 hex digits: fast, deterministic, and wide
// enough that accidental collisions within one page are negligible.
func HashContent(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(norm.NFC.String(text)))
}
