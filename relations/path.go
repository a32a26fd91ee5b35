package relations

// resolvePaths replaces every substance by one carrying its full path:
// ROOT, the governors passed over, the own cluster. A negated or
// contrasted governor A contributes a negative marker -cluster(A) right
// before its id. A negated substance that governs other substances gets
// the marker before its own cluster, so the exclusion covers what it
// governs; a negated leaf keeps its negation on the entity itself.
//
// Afterwards paths are reduced to their touchpoints: a positive id
// referenced as head or cluster by fewer than two substances is dropped
// from every path. ROOT and negative markers always survive.
func resolvePaths(words []AnnotatedWord, subs []Substance) []Substance {
	governed := make(map[int]bool)
	for _, s := range subs {
		for _, id := range s.Path {
			if id > 0 {
				governed[id] = true
			}
		}
	}

	resolved := make([]Substance, len(subs))
	for i, s := range subs {
		path := make([]int, 0, 2*len(s.Path)+2)
		for _, id := range s.Path {
			if id > 0 {
				if a := words[id-1]; a.Features.Negated() {
					path = append(path, -a.Cluster)
				}
			}
			path = append(path, id)
		}
		if s.Features.Negated() && (governed[s.ID] || governed[s.Cluster]) {
			path = append(path, -s.Cluster)
			s.lifted = true
		}
		path = append(path, s.Cluster)
		s.Path = path
		resolved[i] = s
	}

	return reduceTouchpoints(resolved)
}

// reduceTouchpoints drops single-use path segments and re-derives head and
// cluster from the last two surviving entries.
func reduceTouchpoints(subs []Substance) []Substance {
	refs := make(map[int]int)
	for _, s := range subs {
		if s.Head > 0 {
			refs[s.Head]++
		}
		if s.Cluster > 0 && s.Cluster != s.Head {
			refs[s.Cluster]++
		}
	}

	reduced := make([]Substance, len(subs))
	for i, s := range subs {
		path := make([]int, 0, len(s.Path))
		for _, id := range s.Path {
			if id <= 0 || refs[id] >= 2 {
				path = append(path, id)
			}
		}
		s.Path = dedupAdjacent(path)
		s.Cluster = s.Path[len(s.Path)-1]
		s.Head = 0
		if len(s.Path) >= 2 {
			s.Head = s.Path[len(s.Path)-2]
		}
		reduced[i] = s
	}
	return reduced
}

// dedupAdjacent removes repeated neighbours, which appear when a schema
// puts a word into the cluster of its own head.
func dedupAdjacent(path []int) []int {
	out := make([]int, 0, len(path))
	for _, id := range path {
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
