package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Amélie Poulain": "Amelie Poulain",
		"Ça déçoit":      "Ca decoit",
		"ﬁlm":            "film",
		"plain":          "plain",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
	if got := TitleName("  geena   davis "); got != "Geena Davis" {
		t.Errorf("TitleName = %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("L'homme est allé à la fête, isn't it? OK.")
	want := []string{"homme", "est", "alle", "fete"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestFingerprintAndCosine(t *testing.T) {
	a := NewFingerprint("the quick brown fox", nil)
	b := NewFingerprint("the slow brown cat", nil)
	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical similarity = %v", got)
	}
	got := CosineSimilarity(a, b)
	if got <= 0 || got >= 1 {
		t.Fatalf("partial similarity = %v", got)
	}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Fatal("similarity is not symmetric")
	}
	if CosineSimilarity(nil, a) != 0 {
		t.Fatal("nil fingerprint should score 0")
	}
	if NewFingerprint("a an to", nil) != nil {
		t.Fatal("short tokens only should produce nil")
	}
	if fp := NewFingerprint("the fox", map[string]bool{"the": true}); fp.TokenCount() != 1 {
		t.Fatalf("stop words not filtered: %d", fp.TokenCount())
	}
}

func TestCorpusIDFAndTop(t *testing.T) {
	c := NewCorpus()
	docs := []*Fingerprint{
		NewFingerprint("dress wedding love", nil),
		NewFingerprint("gun car love", nil),
	}
	for _, d := range docs {
		c.Add(d)
	}
	idf := c.IDF()
	if idf["love"] >= idf["dress"] {
		t.Fatalf("shared term should weigh less: %v", idf)
	}
	top := docs[0].WithIDF(idf).Top(2)
	if len(top) != 2 || top[0].Term != "dress" {
		t.Fatalf("unexpected top terms %+v", top)
	}
	if c.Len() != 2 {
		t.Fatalf("unexpected corpus size %d", c.Len())
	}
}

func TestJaroWinkler(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"MARTHA", "MARHTA", 0.961},
		{"DWAYNE", "DUANE", 0.84},
		{"DIXON", "DICKSONX", 0.813},
		{"same", "same", 1},
		{"", "abc", 0},
	}
	for _, tt := range tests {
		if got := JaroWinkler(tt.a, tt.b); math.Abs(got-tt.want) > 0.001 {
			t.Errorf("JaroWinkler(%q, %q) = %.4f, want %.3f", tt.a, tt.b, got, tt.want)
		}
	}
	if JaroWinkler("Louise", "Louise Sawyer") <= 0.875 {
		t.Error("name variants should group above the default threshold")
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeFileName(" AC/DC: Live? "); got != "AC-DC- Live" {
		t.Errorf("SanitizeFileName = %q", got)
	}
	if got := Slug("Thelma & Louise (1991)"); got != "thelma_louise_1991" {
		t.Errorf("Slug = %q", got)
	}
	if got := Slug("!!!"); got != "unknown" {
		t.Errorf("Slug = %q", got)
	}
}
