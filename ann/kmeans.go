package ann

import "math/rand"

// kmeans runs a fixed number of Lloyd iterations over X (row-major
// vectors of equal length) to produce k centroids. Grounded on
// faiss_backends.py's reliance on faiss.train() for both the coarse
// quantizer and the product-quantization sub-quantizers (§4.5 "IVF-PQ
// backend"); faiss itself is not in the retrieved pack, so the clustering
// step is a plain from-scratch Lloyd's algorithm.
func kmeans(X [][]float32, k, iters int, rnd *rand.Rand) [][]float32 {
	n := len(X)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	dim := len(X[0])

	centroids := make([][]float32, k)
	perm := rnd.Perm(n)
	for i := 0; i < k; i++ {
		src := X[perm[i]]
		c := make([]float32, dim)
		copy(c, src)
		centroids[i] = c
	}

	assign := make([]int, n)
	for it := 0; it < iters; it++ {
		changed := false
		for i, x := range X {
			best, bestDist := 0, squaredL2(x, centroids[0])
			for c := 1; c < k; c++ {
				d := squaredL2(x, centroids[c])
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := 0; c < k; c++ {
			sums[c] = make([]float64, dim)
		}
		for i, x := range X {
			c := assign[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c][d] += float64(x[d])
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// re-seed a dead cluster from a random point so it can
				// absorb points in a later iteration rather than sitting
				// empty forever.
				src := X[rnd.Intn(n)]
				cp := make([]float32, dim)
				copy(cp, src)
				centroids[c] = cp
				continue
			}
			nc := make([]float32, dim)
			for d := 0; d < dim; d++ {
				nc[d] = float32(sums[c][d] / float64(counts[c]))
			}
			centroids[c] = nc
		}
		if !changed && it > 0 {
			break
		}
	}
	return centroids
}

func nearestCentroid(x []float32, centroids [][]float32) (idx int, dist float32) {
	dist = squaredL2(x, centroids[0])
	for c := 1; c < len(centroids); c++ {
		d := squaredL2(x, centroids[c])
		if d < dist {
			idx, dist = c, d
		}
	}
	return idx, dist
}
