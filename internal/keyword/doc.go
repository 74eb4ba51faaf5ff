// Package keyword implements the relevance filter and heuristic scorer the
// discovery protocol uses to narrow and rank candidate links without any
// external call.
//
// A Profile is an ordered list of keyword phrases, highest priority first.
// Filtering keeps a link when its lower-cased href plus anchor text contains
// any phrase as a substring. Scoring is a pure function over (link, profile):
// identical inputs always produce the identical winner, which makes the
// scorer a deterministic fallback when the semantic classifier misbehaves.
package keyword
