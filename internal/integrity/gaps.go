package integrity

import (
	"strings"

	"github.com/m0n0x41d/crucible/internal/types"
)

// titlePrefixLength is how many normalized title characters participate in
// gap matching; titleMatchMinLength guards against trivial matches on very
// short titles.
const (
	titlePrefixLength   = 50
	titleMatchMinLength = 8
)

// ComputeSynthesisGaps audits a synthesis plan against the blocking active
// items. An item is addressed when its display ID appears literally
// (case-insensitive) in the plan's suggestion lists, or when the first 50
// normalized characters of its title appear under identical normalization
// (titles of 8 normalized characters or fewer never title-match). Unaddressed
// items come back in active-set order; a non-empty result means the round
// must not finalize.
//
// Matching operates on the canonical store — never on compressed or
// summarized text — so a model cannot satisfy the gate by paraphrase.
func ComputeSynthesisGaps(activeSet []string, items ItemStore, plan *types.SynthesisPlan) []*types.CritiqueItem {
	var planText strings.Builder
	if plan != nil {
		for _, s := range plan.AcceptedSuggestions {
			planText.WriteString(s)
			planText.WriteByte('\n')
		}
		for _, s := range plan.RejectedSuggestions {
			planText.WriteString(s)
			planText.WriteByte('\n')
		}
	}
	loweredPlan := strings.ToLower(planText.String())
	squashedPlan := squashAlnum(loweredPlan)

	var gaps []*types.CritiqueItem
	for _, id := range activeSet {
		item, ok := items[id]
		if !ok || item.Severity != types.SeverityBlocking {
			continue
		}
		if strings.Contains(loweredPlan, strings.ToLower(item.DisplayID)) {
			continue
		}
		if titleKey := titleMatchKey(item.Title); titleKey != "" && strings.Contains(squashedPlan, titleKey) {
			continue
		}
		gaps = append(gaps, item)
	}
	return gaps
}

// titleMatchKey lowercases the title, strips non-alphanumerics, and truncates
// to the match prefix. Returns "" when the normalized title is too short to
// match safely.
func titleMatchKey(title string) string {
	key := squashAlnum(strings.ToLower(title))
	if len(key) <= titleMatchMinLength {
		return ""
	}
	if len(key) > titlePrefixLength {
		key = key[:titlePrefixLength]
	}
	return key
}

// squashAlnum removes every character outside [a-z0-9] from an
// already-lowercased string. Underscores are removed here too; display-ID
// matching above keeps them by matching the raw lowered text instead. The
// result is ASCII-only, so downstream prefix lengths count characters.
func squashAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}
