package integrity

import "github.com/m0n0x41d/crucible/internal/types"

// ComputeRootSeverity returns the maximum severity among the referenced roots
// (blocking > important > minor). Roots missing from the store are skipped;
// if none resolve, the empty severity is returned.
func ComputeRootSeverity(rootIDs []string, items ItemStore) types.Severity {
	var max types.Severity
	for _, id := range rootIDs {
		root, ok := items[id]
		if !ok {
			continue
		}
		max = types.MaxSeverity(max, root.Severity)
	}
	return max
}
