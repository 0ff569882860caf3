// Package main provides the entry point for the textveil CLI.
//
// Textveil scans HTML documents for text fragments matching configured
// filters (keywords, script variants, an AI classifier) and replaces the
// matching fragments with placeholders.
//
// Usage:
//
//	textveil scan <file-or-url>
//	textveil scan --keywords spoiler,leak page.html
//
// See --help for all available options.
package main

// main is the entry point for textveil.
func main() {
	Execute()
}
