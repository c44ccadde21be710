package embed

// MaxSim is the late-interaction scoring function used by ColPali-family
// models: for each page, sum over the query's vectors of the maximum dot
// product against any of the page's vectors. Returns one score per page,
// index-aligned with the input.
func MaxSim(query PageEmbedding, pages []PageEmbedding) []float64 {
	scores := make([]float64, len(pages))
	for p, page := range pages {
		var total float64
		for _, qv := range query {
			best := 0.0
			first := true
			for _, pv := range page {
				d := dot(qv, pv)
				if first || d > best {
					best = d
					first = false
				}
			}
			if !first {
				total += best
			}
		}
		scores[p] = total
	}
	return scores
}

func dot(a, b Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
