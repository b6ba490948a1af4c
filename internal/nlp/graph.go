package nlp

import (
	"math"
	"sort"
)

// Edge is an undirected weighted link between two entities.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is a weighted undirected entity graph.
type Graph struct {
	adj map[string]map[string]float64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string]map[string]float64)}
}

// AddNode registers a node without edges.
func (g *Graph) AddNode(n string) {
	if _, ok := g.adj[n]; !ok {
		g.adj[n] = make(map[string]float64)
	}
}

// AddEdge increases the weight between a and b. Self loops are ignored.
func (g *Graph) AddEdge(a, b string, w float64) {
	g.AddNode(a)
	g.AddNode(b)
	if a == b {
		return
	}
	g.adj[a][b] += w
	g.adj[b][a] += w
}

// Weight returns the weight between a and b.
func (g *Graph) Weight(a, b string) float64 {
	return g.adj[a][b]
}

// Nodes returns the node names in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.adj))
	for n := range g.adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edges returns each undirected edge once, heaviest first.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for a, nbrs := range g.adj {
		for b, w := range nbrs {
			if a < b {
				out = append(out, Edge{Source: a, Target: b, Weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Cooccurrence links every pair of distinct entities sharing a sentence.
// Each element of sentences lists the entities found in one sentence.
func Cooccurrence(sentences [][]string) *Graph {
	g := NewGraph()
	for _, entities := range sentences {
		seen := make(map[string]bool)
		var distinct []string
		for _, e := range entities {
			if !seen[e] {
				seen[e] = true
				distinct = append(distinct, e)
				g.AddNode(e)
			}
		}
		for i := 0; i < len(distinct); i++ {
			for j := i + 1; j < len(distinct); j++ {
				g.AddEdge(distinct[i], distinct[j], 1)
			}
		}
	}
	return g
}

// Rank is a node and its PageRank score.
type Rank struct {
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
}

// PageRank runs weighted power iteration until the L1 change drops below
// tol or iter rounds pass. Dangling nodes spread their mass uniformly. The
// result is sorted by descending score.
func PageRank(g *Graph, damping float64, iter int, tol float64) []Rank {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return nil
	}
	out := make(map[string]float64, n)
	for _, a := range nodes {
		for _, w := range g.adj[a] {
			out[a] += w
		}
	}
	rank := make(map[string]float64, n)
	for _, a := range nodes {
		rank[a] = 1 / float64(n)
	}
	for k := 0; k < iter; k++ {
		dangling := 0.0
		for _, a := range nodes {
			if out[a] == 0 {
				dangling += rank[a]
			}
		}
		next := make(map[string]float64, n)
		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for _, a := range nodes {
			next[a] = base
		}
		for _, a := range nodes {
			if out[a] == 0 {
				continue
			}
			for b, w := range g.adj[a] {
				next[b] += damping * rank[a] * w / out[a]
			}
		}
		delta := 0.0
		for _, a := range nodes {
			delta += math.Abs(next[a] - rank[a])
		}
		rank = next
		if delta < float64(n)*tol {
			break
		}
	}
	ranks := make([]Rank, 0, n)
	for _, a := range nodes {
		ranks = append(ranks, Rank{Entity: a, Score: rank[a]})
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Score > ranks[j].Score })
	return ranks
}
