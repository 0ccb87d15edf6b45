package sampler

import "sort"

// DefaultPoolCap bounds the number of candidates considered for selection.
const DefaultPoolCap = 100

// BuildPool returns the indices of the poolCap highest scores, best first.
// Ties keep their input order. A non-positive poolCap uses DefaultPoolCap.
func BuildPool(scores []float64, poolCap int) []int {
	if poolCap <= 0 {
		poolCap = DefaultPoolCap
	}
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if len(idx) > poolCap {
		idx = idx[:poolCap]
	}
	return idx
}
