// Package scanner discovers candidate text fragments in parsed HTML trees.
//
// The scanner is read-only with respect to the document: it walks a subtree,
// filters out structural chrome, invisible elements, textveil's own
// placeholders and too-short text, and returns Fragments. It never mutates
// anything; applying verdicts is the presentation sink's job, driven by the
// scheduler.
package scanner
