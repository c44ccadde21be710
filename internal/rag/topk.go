package rag

import "sort"

// TopK returns the indices of the k highest scores, most relevant first.
// Policy: k == 0 uses defaultK, k == -1 returns every page, k greater than
// the page count clamps silently, and negative values below -1 fall back to
// the default rather than erroring. Equal scores resolve to the lower page
// index first so near-duplicate pages rank deterministically.
func TopK(scores []float64, k, defaultK int) []int {
	n := len(scores)
	switch {
	case k == -1:
		k = n
	case k <= 0:
		k = defaultK
	}
	if k > n {
		k = n
	}

	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(i, j int) bool {
		if scores[idxs[i]] != scores[idxs[j]] {
			return scores[idxs[i]] > scores[idxs[j]]
		}
		return idxs[i] < idxs[j]
	})
	return idxs[:k]
}
