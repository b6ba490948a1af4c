package textutil

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}']+`)

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = 3

// Tokenize lowercases and accent-folds text and splits it into words of at
// least MinTokenLength runes. Elisions such as "l'homme" keep the head word.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(Fold(text)), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if i := strings.LastIndexAny(token, "'"); i >= 0 {
			token = token[i+1:]
		}
		if len([]rune(token)) < MinTokenLength {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Fingerprint is a term-frequency vector.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint builds a fingerprint from text, skipping any token in stop.
// It returns nil when no token survives.
func NewFingerprint(text string, stop map[string]bool) *Fingerprint {
	counts := make(map[string]float64)
	for _, token := range Tokenize(text) {
		if stop[token] {
			continue
		}
		counts[token]++
	}
	return fromWeights(counts)
}

func fromWeights(weights map[string]float64) *Fingerprint {
	if len(weights) == 0 {
		return nil
	}
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	return &Fingerprint{tokens: weights, norm: math.Sqrt(norm)}
}

// TokenCount returns the number of distinct terms.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Weight returns the weight of term.
func (f *Fingerprint) Weight(term string) float64 {
	if f == nil {
		return 0
	}
	return f.tokens[term]
}

// WithIDF returns a copy weighted by idf. Terms absent from idf keep their weight.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	for token, count := range f.tokens {
		w := count
		if v, ok := idf[token]; ok {
			w *= v
		}
		if w != 0 {
			weighted[token] = w
		}
	}
	return fromWeights(weighted)
}

// TermWeight is a term and its weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Top returns the k heaviest terms, ties broken alphabetically.
func (f *Fingerprint) Top(k int) []TermWeight {
	if f == nil || k <= 0 {
		return nil
	}
	out := make([]TermWeight, 0, len(f.tokens))
	for term, w := range f.tokens {
		out = append(out, TermWeight{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Corpus accumulates document frequencies for IDF weighting.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers the distinct terms of fp as one document.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// Len returns the number of documents added.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return c.docCount
}

// IDF returns smoothed inverse document frequencies, log((N+1)/(1+df)) + 1.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
