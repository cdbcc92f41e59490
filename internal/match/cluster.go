package match

import "sort"

// clusterScores labels every candidate with a cluster over the
// one-dimensional relevance-score line. Two scores belong to the same
// cluster when they are chained by gaps of at most epsilon: density
// clustering with a minimum cluster size of one, so an isolated top score
// forms its own cluster. Labels are assigned in ascending score order.
//
// Candidates sharing a label are too close to separate: if the cluster
// holding the maximum score has more than one member, the match is
// ambiguous.
func clusterScores(cands []Candidate, epsilon float64) []Candidate {
	if len(cands) == 0 {
		return cands
	}
	if epsilon < 0 {
		epsilon = 0
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].Score < cands[order[b]].Score
	})

	label := 0
	cands[order[0]].Cluster = 0
	for k := 1; k < len(order); k++ {
		prev, cur := order[k-1], order[k]
		if cands[cur].Score-cands[prev].Score > epsilon {
			label++
		}
		cands[cur].Cluster = label
	}
	return cands
}

// topClusterSize returns the member count of the cluster containing the
// maximum-score candidate.
func topClusterSize(cands []Candidate) int {
	if len(cands) == 0 {
		return 0
	}
	top := cands[0]
	for _, c := range cands[1:] {
		if c.Score > top.Score {
			top = c
		}
	}
	n := 0
	for _, c := range cands {
		if c.Cluster == top.Cluster {
			n++
		}
	}
	return n
}
