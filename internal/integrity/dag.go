package integrity

import "fmt"

// DAGResult is the outcome of a derivation-graph validation pass.
type DAGResult struct {
	Valid bool     `json:"valid"`
	Cycle []string `json:"cycle,omitempty"`
}

// Err converts an invalid result into an ErrCycleDetected that names the
// cycle members. Returns nil for a valid graph.
func (r DAGResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCycleDetected, r.Cycle)
}

// dfs colors for cycle detection.
const (
	colorWhite = 0 // unvisited
	colorGrey  = 1 // on the current DFS stack
	colorBlack = 2 // fully explored
)

// ValidateDAG checks that derived_from edges form no cycle, using a
// three-color depth-first traversal. A grey-to-grey back edge is a cycle; the
// returned cycle lists its members in traversal order. Edges to IDs not in
// the store are ignored (cross-proposal references are permitted but opaque).
//
// Validation is idempotent and runs out of band after bulk loads; rerun it
// from scratch whenever the store grows.
func ValidateDAG(items ItemStore) DAGResult {
	color := make(map[string]int, len(items))
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = colorGrey
		path = append(path, id)

		for _, parent := range items[id].DerivedFrom {
			if _, ok := items[parent]; !ok {
				continue
			}
			switch color[parent] {
			case colorGrey:
				// Back edge: slice the cycle out of the current path.
				for i, n := range path {
					if n == parent {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						return cycle
					}
				}
				return []string{parent, id}
			case colorWhite:
				if cycle := dfs(parent); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = colorBlack
		return nil
	}

	for _, id := range sortedItemIDs(items) {
		if color[id] != colorWhite {
			continue
		}
		if cycle := dfs(id); cycle != nil {
			return DAGResult{Valid: false, Cycle: cycle}
		}
		path = path[:0]
	}
	return DAGResult{Valid: true}
}
