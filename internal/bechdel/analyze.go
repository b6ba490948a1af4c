package bechdel

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/nlp"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

const (
	pageRankDamping   = 0.85
	pageRankIter      = 100
	pageRankTolerance = 1e-6

	// DefaultVocabularySize is the number of distinctive terms kept per gender.
	DefaultVocabularySize = 20
)

// Input is what Analyze works from. Only Cues is required.
type Input struct {
	Cues     []subtitles.Cue
	Cast     []nlp.CastMember
	Segments []audio.Segment
	Lexicon  nlp.Lexicon

	BlockGap       time.Duration
	GroupThreshold float64
	VocabularySize int
	Logger         *slog.Logger
}

// Character is a named entity after grouping, with its cast match.
type Character struct {
	Name      string     `json:"name"`
	Mentions  int        `json:"mentions"`
	Gender    nlp.Gender `json:"gender"`
	Character string     `json:"character,omitempty"`
	Actor     string     `json:"actor,omitempty"`
	Matched   bool       `json:"matched"`
	Rank      float64    `json:"rank"`
}

// Exchange is a dialogue block with the characters named in it.
type Exchange struct {
	subtitles.Block
	Characters  []string `json:"characters,omitempty"`
	MentionsMan bool     `json:"mentions_man"`
}

// Report is the outcome of a subtitle analysis.
type Report struct {
	Cues       int               `json:"cues"`
	Exchanges  []Exchange        `json:"exchanges"`
	Characters []Character       `json:"characters"`
	Groups     map[string]string `json:"groups,omitempty"`
	Edges      []nlp.Edge        `json:"edges,omitempty"`
	Mentions   nlp.Mentions      `json:"mentions"`
	Dialogue   *Dialogue         `json:"dialogue,omitempty"`
	Vocabulary *nlp.Vocabulary   `json:"vocabulary,omitempty"`
	Score      Rating            `json:"score"`
}

// Women returns the characters matched to a woman of the cast.
func (r *Report) Women() []Character {
	var out []Character
	for _, c := range r.Characters {
		if c.Gender == nlp.Woman {
			out = append(out, c)
		}
	}
	return out
}

// Analyze cleans the cues, splits them into dialogue blocks, finds and
// groups character names, matches them to the cast, ranks them on the
// co-occurrence graph and counts gendered mentions. With audio segments it
// also splits the dialogue by gender and extracts distinctive vocabulary.
func Analyze(ctx context.Context, in Input) (*Report, error) {
	if len(in.Cues) == 0 {
		return nil, services.Wrap(services.ErrValidation, "bechdel", "analyze", "no subtitle cues", nil)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(in.Logger, "bechdel"))
	lexicon := in.Lexicon
	if lexicon == nil {
		lexicon = nlp.DefaultLexicon()
	}
	stop := nlp.Stopwords()
	extractor := &nlp.Extractor{Stopwords: stop, Lexicon: lexicon}

	cleaned := subtitles.Clean(in.Cues)
	blocks := subtitles.Blocks(cleaned, in.BlockGap)
	report := &Report{Cues: len(cleaned)}

	type mention struct {
		block, sentence int
		name            string
	}
	var mentions []mention
	var names []string
	texts := make([]string, 0, len(blocks))
	for bi, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		texts = append(texts, block.Text)
		for _, span := range extractor.ExtractEntities(block.Text) {
			mentions = append(mentions, mention{block: bi, sentence: span.Sentence, name: span.Text})
			names = append(names, span.Text)
		}
	}

	report.Groups = nlp.GroupEntities(names, in.GroupThreshold)
	counts := make(map[string]int)
	perBlock := make([][]string, len(blocks))
	var sentences [][]string
	last := mention{block: -1}
	for _, m := range mentions {
		name := nlp.Canonical(report.Groups, m.name)
		counts[name]++
		perBlock[m.block] = appendUnique(perBlock[m.block], name)
		if m.block != last.block || m.sentence != last.sentence {
			sentences = append(sentences, nil)
		}
		sentences[len(sentences)-1] = appendUnique(sentences[len(sentences)-1], name)
		last = m
	}

	distinct := make([]string, 0, len(counts))
	for name := range counts {
		distinct = append(distinct, name)
	}
	sort.Slice(distinct, func(i, j int) bool {
		if counts[distinct[i]] != counts[distinct[j]] {
			return counts[distinct[i]] > counts[distinct[j]]
		}
		return distinct[i] < distinct[j]
	})

	graph := nlp.Cooccurrence(sentences)
	report.Edges = graph.Edges()
	ranks := make(map[string]float64)
	for _, r := range nlp.PageRank(graph, pageRankDamping, pageRankIter, pageRankTolerance) {
		ranks[r.Entity] = r.Score
	}

	genders := make(map[string]nlp.Gender, len(distinct))
	for _, match := range nlp.MatchCast(distinct, in.Cast, stop) {
		report.Characters = append(report.Characters, Character{
			Name:      match.Entity,
			Mentions:  counts[match.Entity],
			Gender:    match.Gender,
			Character: match.Character,
			Actor:     match.Actor,
			Matched:   match.Matched,
			Rank:      ranks[match.Entity],
		})
		genders[match.Entity] = match.Gender
	}

	for bi, block := range blocks {
		ex := Exchange{Block: block, Characters: perBlock[bi]}
		ex.MentionsMan = nlp.MentionsMan(block.Text, lexicon)
		for _, name := range ex.Characters {
			if genders[name] == nlp.Man {
				ex.MentionsMan = true
			}
		}
		report.Exchanges = append(report.Exchanges, ex)
	}
	report.Mentions = nlp.PersonMentions(strings.Join(texts, " "), lexicon)

	if len(in.Segments) > 0 {
		dialogue := DialogueByGender(cleaned, in.Segments)
		report.Dialogue = &dialogue
		k := in.VocabularySize
		if k <= 0 {
			k = DefaultVocabularySize
		}
		vocabulary := nlp.DistinctiveVocabulary(dialogue.Female, dialogue.Male, k, stop)
		report.Vocabulary = &vocabulary
	}
	report.Score = Score(report)

	logger.Info("subtitle analysis complete",
		logging.Int("cues", report.Cues),
		logging.Int("blocks", len(report.Exchanges)),
		logging.Int("characters", len(report.Characters)),
		logging.Int("women", len(report.Women())),
		logging.Int("score", report.Score.Value))
	return report, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
