// Package idgen mints content-addressed critique item IDs.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Prefix is prepended to every minted ID.
const Prefix = "blk_"

// DisplayLength is the length of a truncated display ID (Prefix + 8 hex).
const DisplayLength = 12

// MintID computes the deterministic ID for an item scope. The scope string is
// "{proposal}|{role}|{round}|{normalizedText}" with literal pipe separators;
// the ID is Prefix followed by the 64 lowercase hex chars of its SHA-256.
// Two items with the same scope are the same item; collisions across distinct
// scopes are cryptographically improbable.
func MintID(proposalID, role string, round int, normalizedText string) string {
	scope := fmt.Sprintf("%s|%s|%d|%s", proposalID, role, round, normalizedText)
	sum := sha256.Sum256([]byte(scope))
	return Prefix + hex.EncodeToString(sum[:])
}

// DisplayID returns the first 12 characters of a minted ID. Short inputs are
// returned unchanged rather than sliced out of range.
func DisplayID(id string) string {
	if len(id) < DisplayLength {
		return id
	}
	return id[:DisplayLength]
}
