// Package classifier defines the semantic classifier contract the discovery
// engine requires, and provides an Ollama-backed implementation.
//
// The engine asks the classifier two questions: "does this page's own text
// satisfy target type T?" (embedded check) and "pick the best matching href
// from this list" (link selection). The engine never trusts the second
// answer contractually: a chosen URL outside the supplied candidate list is
// discarded in favor of the heuristic scorer.
//
// All implementations must degrade rather than fail: malformed model output
// is reported through the verdict's Err field, which the engine treats the
// same as "nothing found".
package classifier
