// Package config holds the textveil settings snapshot and its YAML loader.
//
// The core pipeline treats settings as an externally-owned, read-only
// snapshot: it is built once (flags layered over an optional config file
// layered over defaults), validated, and then passed by injection. Nothing
// in the pipeline mutates it or re-reads it mid-session.
package config
