package ann

import "github.com/annstore/vecdb/meta"

// SelectAlgo implements §4.5's hybrid policy: a fixed policy always picks
// its own algorithm; "hybrid" picks graph while vectorCount is under
// threshold and switches to ivfpq once it's crossed. The switch only
// takes effect at the next build — there is no online migration — which
// falls out naturally here since the builder is the only caller.
func SelectAlgo(policy meta.Policy, vectorCount, threshold int) meta.Algo {
	switch policy {
	case meta.PolicyGraph:
		return meta.AlgoGraph
	case meta.PolicyIVFPQ:
		return meta.AlgoIVFPQ
	default: // hybrid
		if vectorCount < threshold {
			return meta.AlgoGraph
		}
		return meta.AlgoIVFPQ
	}
}
