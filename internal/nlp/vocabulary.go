package nlp

import (
	"sort"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/textutil"
)

// Vocabulary holds the terms most characteristic of each gender's lines.
type Vocabulary struct {
	Female []textutil.TermWeight `json:"female"`
	Male   []textutil.TermWeight `json:"male"`
}

// DistinctiveVocabulary weights the words of female and male lines by
// tf-idf, every line counting as one document, and returns for each side the
// k terms whose normalised weight most exceeds the other side's.
func DistinctiveVocabulary(female, male []string, k int, stop map[string]bool) Vocabulary {
	corpus := textutil.NewCorpus()
	for _, line := range append(append([]string(nil), female...), male...) {
		corpus.Add(textutil.NewFingerprint(line, stop))
	}
	idf := corpus.IDF()
	fw := textutil.NewFingerprint(strings.Join(female, "\n"), stop).WithIDF(idf)
	mw := textutil.NewFingerprint(strings.Join(male, "\n"), stop).WithIDF(idf)
	fTotal, mTotal := totalWeight(fw), totalWeight(mw)

	diff := make(map[string]float64)
	for _, tw := range fw.Top(fw.TokenCount()) {
		diff[tw.Term] += tw.Weight / fTotal
	}
	for _, tw := range mw.Top(mw.TokenCount()) {
		diff[tw.Term] -= tw.Weight / mTotal
	}
	return Vocabulary{
		Female: topDiff(diff, k, 1),
		Male:   topDiff(diff, k, -1),
	}
}

func totalWeight(fp *textutil.Fingerprint) float64 {
	total := 0.0
	for _, tw := range fp.Top(fp.TokenCount()) {
		total += tw.Weight
	}
	if total == 0 {
		return 1
	}
	return total
}

func topDiff(diff map[string]float64, k int, sign float64) []textutil.TermWeight {
	var out []textutil.TermWeight
	for term, d := range diff {
		if d*sign > 0 {
			out = append(out, textutil.TermWeight{Term: term, Weight: d * sign})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
