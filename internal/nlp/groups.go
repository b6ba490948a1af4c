package nlp

import "github.com/dataforgoodfr/bechdelai/internal/textutil"

// DefaultGroupThreshold is the Jaro-Winkler similarity above which two
// entity names are considered the same person.
const DefaultGroupThreshold = 0.875

// GroupEntities clusters name variants ("Louise", "Louise Sawyer") and maps
// every grouped name to the most frequent member of its group. names holds
// one element per mention. Names without a similar partner are absent from
// the result.
//
// Pairs are visited in first-mention order. A name joins the group of its
// already grouped partner. When both names of a similar pair already sit in
// different groups, both move together into a fresh group and their former
// partners stay behind.
func GroupEntities(names []string, threshold float64) map[string]string {
	if threshold <= 0 {
		threshold = DefaultGroupThreshold
	}
	return groupWith(names, func(a, b string) bool {
		return textutil.JaroWinkler(a, b) > threshold
	})
}

func groupWith(names []string, similar func(a, b string) bool) map[string]string {
	counts := make(map[string]int)
	var distinct []string
	for _, n := range names {
		if counts[n] == 0 {
			distinct = append(distinct, n)
		}
		counts[n]++
	}

	group := make(map[string]int)
	next := 0
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			a, b := distinct[i], distinct[j]
			if !similar(a, b) {
				continue
			}
			ga, okA := group[a]
			gb, okB := group[b]
			switch {
			case okA && !okB:
				group[b] = ga
			case okB && !okA:
				group[a] = gb
			case !okA && !okB, ga != gb:
				group[a], group[b] = next, next
				next++
			}
		}
	}

	best := make(map[int]string)
	for _, n := range distinct {
		g, ok := group[n]
		if !ok {
			continue
		}
		if cur, seen := best[g]; !seen || counts[n] > counts[cur] {
			best[g] = n
		}
	}
	mapping := make(map[string]string, len(group))
	for n, g := range group {
		mapping[n] = best[g]
	}
	return mapping
}

// Canonical returns mapping[name] or name itself.
func Canonical(mapping map[string]string, name string) string {
	if c, ok := mapping[name]; ok {
		return c
	}
	return name
}
