// Package discovery implements the hybrid target-discovery engine: the
// three-stage check-search-validate protocol that decides whether a sought
// compliance fact lives on a page or on one of its linked sub-pages, and
// the coordinator that fans protocol runs out across target types.
//
// One protocol run walks three strictly sequential stages:
//
//	Stage 1  embedded check      does the seed page's own text qualify?
//	Stage 2  hybrid selection    classifier picks a candidate link, with
//	                             the deterministic keyword scorer as
//	                             fallback when the classifier strays
//	                             outside the candidate set
//	Stage 3  validation          the selected page must itself pass the
//	                             embedded check before it is reported
//
// The net priority order is: validated separate page, then embedded result
// on the seed page, then not found. Dedicated compliance pages are more
// complete than passing mentions, but a page with a genuine embedded
// declaration beats reporting nothing.
//
// Every failure inside a run degrades that run to a not-found result with
// a human-readable reason; nothing here is fatal to sibling runs.
package discovery
