// Package match owns optimal one-to-one association between two groups of
// items.
//
// Responsibilities: dense cost-matrix construction from a pluggable score
// function, rectangular minimum-cost assignment (Kuhn–Munkres), and the
// post-assignment acceptance gate that partitions items into matched pairs
// and unmatched leftovers.
// Key types: Matcher, Solver, Assignment, Outcome.
//
// Matching is two-phase: the solver picks the globally cheapest pairing over
// the ungated costs, then each chosen pair is checked against maxScore. A
// rejected pair sends both members to the unmatched lists; the solver is not
// asked for an alternative.
//
// Dependency rule: match is generic over the item type and depends on
// nothing else under internal/blob.
package match
