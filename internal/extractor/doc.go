// Package extractor turns a page's HTML into the inputs the discovery
// protocol needs: a scoped, deduplicated candidate-link set and a plain-text
// rendering of the page body.
//
// Link extraction enforces the scoping invariants of the discovery engine:
// every returned link belongs to the analyzed site's registrable domain (or
// a subdomain of it), carries no fragment, and does not point at a
// non-document asset. Deduplication is by resolved absolute URL, keeping the
// first anchor text seen.
package extractor
