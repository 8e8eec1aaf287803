// Package normalize canonicalizes critique text for content-addressed minting.
//
// The v1 rules are pinned: any behavior change requires a new SpecVersion tag
// and, by policy, a new proposal. Items carry the version they were minted
// under so historical IDs stay stable across upgrades.
package normalize

import "strings"

// SpecVersion is the pinned normalization version stamped onto minted items.
const SpecVersion = "v1"

// trailingPunct is the set stripped from the end of normalized text.
const trailingPunct = ".,;:!?"

// Normalize applies the v1 rules in order: trim leading/trailing whitespace,
// collapse internal whitespace runs to a single space, fold to lowercase,
// strip a trailing run of [.,;:!?]. Internal punctuation is preserved.
func Normalize(text string) string {
	fields := strings.Fields(text)
	s := strings.ToLower(strings.Join(fields, " "))
	// The trailing run may interleave punctuation and spaces ("done . .");
	// trimming both as one cutset makes the result a fixed point.
	return strings.TrimRight(s, trailingPunct+" ")
}
