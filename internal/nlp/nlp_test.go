package nlp_test

import (
	"math"
	"strings"
	"testing"

	"github.com/dataforgoodfr/bechdelai/internal/nlp"
)

func TestGenderOfPronoun(t *testing.T) {
	cases := map[string]nlp.Gender{
		"He": nlp.Man, "himself": nlp.Man, "her": nlp.Woman, " Hers ": nlp.Woman, "they": nlp.Unknown,
	}
	for word, want := range cases {
		if got := nlp.GenderOfPronoun(word); got != want {
			t.Errorf("GenderOfPronoun(%q) = %s, want %s", word, got, want)
		}
	}
	if nlp.GenderFromTMDB(1) != nlp.Woman || nlp.GenderFromTMDB(2) != nlp.Man || nlp.GenderFromTMDB(0) != nlp.Unknown {
		t.Fatal("unexpected TMDB gender mapping")
	}
}

func TestLexiconDefinitions(t *testing.T) {
	lex := nlp.DefaultLexicon()
	if g, ok := lex.Lookup("Mother,"); !ok || g != nlp.Woman {
		t.Fatalf("expected mother to be a woman noun, got %s %v", g, ok)
	}
	added, err := lex.AddDefinitions(strings.NewReader(
		"aviatrix: a woman who flies aircraft\nteapot: a pot for tea\nbutler: a man servant\npilot: a person who flies\n"))
	if err != nil {
		t.Fatalf("AddDefinitions: %v", err)
	}
	if added != 3 {
		t.Fatalf("expected 3 words added, got %d", added)
	}
	if lex["aviatrix"] != nlp.Woman || lex["butler"] != nlp.Man || lex["pilot"] != nlp.Unknown {
		t.Fatalf("unexpected genders: %v %v %v", lex["aviatrix"], lex["butler"], lex["pilot"])
	}
	if _, ok := lex["teapot"]; ok {
		t.Fatal("non-person definition should be skipped")
	}
	if _, err := nlp.ReadLexicon(strings.NewReader("broken line\n")); err == nil {
		t.Fatal("expected malformed lexicon to fail")
	}
}

func TestExtractEntities(t *testing.T) {
	text := "Thelma and Louise drive to Mexico. She calls Darryl. The waitress meets Louise Sawyer."
	spans := nlp.NewExtractor().ExtractEntities(text)
	var got []string
	for _, s := range spans {
		got = append(got, s.Text)
		if text[s.Start:s.End] != s.Text {
			t.Fatalf("span offsets do not match text: %+v", s)
		}
	}
	want := []string{"Thelma", "Louise", "Mexico", "Darryl", "Louise Sawyer"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("entities = %v, want %v", got, want)
	}
	if spans[3].Sentence != 1 || spans[4].Sentence != 2 {
		t.Fatalf("unexpected sentence indexes: %+v", spans)
	}
}

func TestSplitSentences(t *testing.T) {
	got := nlp.SplitSentences("Hello there! Where are you going?  Nowhere")
	if len(got) != 3 || got[1].Text != "Where are you going?" || got[2].Text != "Nowhere" {
		t.Fatalf("unexpected sentences: %+v", got)
	}
}

func TestMergeContained(t *testing.T) {
	spans := []nlp.Span{
		{Text: "Louise Sawyer", Start: 0, End: 13},
		{Text: "Sawyer", Start: 7, End: 13},
		{Text: "Louise Sawyer", Start: 0, End: 13},
		{Text: "Thelma", Start: 20, End: 26},
	}
	got := nlp.MergeContained(spans)
	if len(got) != 2 || got[0].Text != "Louise Sawyer" || got[1].Text != "Thelma" {
		t.Fatalf("unexpected merge: %+v", got)
	}
}

func TestGroupEntities(t *testing.T) {
	names := []string{"Louise", "Louise", "Louise Sawyer", "Thelma", "Darryl"}
	mapping := nlp.GroupEntities(names, 0)
	if mapping["Louise Sawyer"] != "Louise" || mapping["Louise"] != "Louise" {
		t.Fatalf("expected Louise variants grouped, got %v", mapping)
	}
	if _, ok := mapping["Thelma"]; ok {
		t.Fatalf("Thelma should stay ungrouped: %v", mapping)
	}
	if nlp.Canonical(mapping, "Thelma") != "Thelma" {
		t.Fatal("Canonical should fall back to the name")
	}
}

func TestGroupEntitiesRegroupsPairsFromDifferentGroups(t *testing.T) {
	pairs := map[[2]string]bool{
		{"Lou", "Louise"}:      true,
		{"Thel", "Thelma"}:     true,
		{"Louise", "Thelma"}:   true,
		{"Louise", "Louise S"}: true,
	}
	similar := func(a, b string) bool { return pairs[[2]string{a, b}] || pairs[[2]string{b, a}] }
	names := []string{"Lou", "Thel", "Louise", "Thelma", "Thelma", "Louise S"}

	mapping := nlp.GroupWith(names, similar)
	// Louise and Thelma start in different groups, so both leave for a new one
	// and Lou and Thel are left alone in their old groups.
	if mapping["Louise"] != "Thelma" || mapping["Thelma"] != "Thelma" {
		t.Fatalf("expected Louise and Thelma regrouped, got %v", mapping)
	}
	if mapping["Lou"] != "Lou" || mapping["Thel"] != "Thel" {
		t.Fatalf("expected former partners left behind, got %v", mapping)
	}
	// Louise S joins Louise's current group.
	if mapping["Louise S"] != "Thelma" {
		t.Fatalf("expected Louise S to follow Louise, got %v", mapping)
	}
}

func TestMatchCast(t *testing.T) {
	cast := []nlp.CastMember{
		{Actor: "Susan Sarandon", Character: "Louise Sawyer", Gender: nlp.Woman},
		{Actor: "Harvey Keitel", Character: "Hal Slocumb", Gender: nlp.Man},
	}
	matches := nlp.MatchCast([]string{"Louise", "Hal Slocumb", "Mexico", "the Louise Sawyer"}, cast, nlp.Stopwords())
	if len(matches) != 4 {
		t.Fatalf("expected one match per entity, got %d", len(matches))
	}
	if !matches[0].Matched || matches[0].Actor != "Susan Sarandon" || matches[0].Gender != nlp.Woman {
		t.Fatalf("word match failed: %+v", matches[0])
	}
	if matches[1].Actor != "Harvey Keitel" || matches[1].Gender != nlp.Man {
		t.Fatalf("exact match failed: %+v", matches[1])
	}
	if matches[2].Matched || matches[2].Gender != nlp.Unknown {
		t.Fatalf("Mexico should not match: %+v", matches[2])
	}
	if matches[3].Character != "Louise Sawyer" {
		t.Fatalf("stopwords should be stripped before matching: %+v", matches[3])
	}
}

func TestCooccurrenceAndPageRank(t *testing.T) {
	g := nlp.Cooccurrence([][]string{
		{"Louise", "Thelma"},
		{"Louise", "Hal", "Louise"},
		{"Louise", "Thelma"},
		{"Darryl"},
	})
	if g.Weight("Louise", "Thelma") != 2 || g.Weight("Hal", "Louise") != 1 {
		t.Fatalf("unexpected weights: %+v", g.Edges())
	}
	if len(g.Nodes()) != 4 {
		t.Fatalf("expected isolated node kept, got %v", g.Nodes())
	}
	ranks := nlp.PageRank(g, 0.85, 100, 1e-6)
	if ranks[0].Entity != "Louise" {
		t.Fatalf("expected Louise to rank first, got %+v", ranks)
	}
	sum := 0.0
	for _, r := range ranks {
		sum += r.Score
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("scores should sum to 1, got %f", sum)
	}
	if nlp.PageRank(nlp.NewGraph(), 0.85, 100, 1e-6) != nil {
		t.Fatal("empty graph should have no ranks")
	}
}

func TestPersonMentions(t *testing.T) {
	m := nlp.PersonMentions("She told her mother that he is a good man.", nlp.DefaultLexicon())
	if m.Woman != 3 || m.Man != 2 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.Words["mother"] != 1 || m.Total() != 5 {
		t.Fatalf("unexpected words: %+v", m)
	}
	if nlp.MentionsMan("Let's talk about the exam.", nlp.DefaultLexicon()) {
		t.Fatal("no male reference expected")
	}
}

func TestDistinctiveVocabulary(t *testing.T) {
	female := []string{"I love the wedding dress", "the dress is lovely"}
	male := []string{"the car engine", "fix the car"}
	vocab := nlp.DistinctiveVocabulary(female, male, 2, nlp.Stopwords())
	if len(vocab.Female) != 2 || vocab.Female[0].Term != "dress" {
		t.Fatalf("unexpected female vocabulary: %+v", vocab.Female)
	}
	if len(vocab.Male) != 2 || vocab.Male[0].Term != "car" {
		t.Fatalf("unexpected male vocabulary: %+v", vocab.Male)
	}
}
