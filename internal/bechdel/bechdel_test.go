package bechdel_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/nlp"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

const fixtureSRT = `1
00:00:01,000 --> 00:00:02,000
Thelma, are you ready?

2
00:00:02,500 --> 00:00:04,000
Louise, I packed the car.

3
00:00:10,000 --> 00:00:11,000
Hal called him again.

4
00:00:11,500 --> 00:00:12,500
Darryl is angry, Thelma.
`

var fixtureCast = []nlp.CastMember{
	{Actor: "susan sarandon", Character: "Louise Sawyer", Gender: nlp.Woman},
	{Actor: "geena davis", Character: "Thelma Dickinson", Gender: nlp.Woman},
	{Actor: "harvey keitel", Character: "Hal Slocumb", Gender: nlp.Man},
	{Actor: "christopher mcdonald", Character: "Darryl Dickinson", Gender: nlp.Man},
}

func parseFixture(t *testing.T) []subtitles.Cue {
	t.Helper()
	cues, err := subtitles.Parse([]byte(fixtureSRT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cues
}

func sec(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func TestAnalyzeBuildsReport(t *testing.T) {
	report, err := bechdel.Analyze(context.Background(), bechdel.Input{Cues: parseFixture(t), Cast: fixtureCast})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Cues != 4 || len(report.Exchanges) != 2 {
		t.Fatalf("expected 4 cues in 2 blocks, got %d cues %d blocks", report.Cues, len(report.Exchanges))
	}
	if report.Characters[0].Name != "Thelma" || report.Characters[0].Mentions != 2 {
		t.Fatalf("expected Thelma first with 2 mentions, got %+v", report.Characters[0])
	}
	if report.Characters[0].Character != "Thelma Dickinson" || report.Characters[0].Gender != nlp.Woman {
		t.Fatalf("expected Thelma matched to the cast, got %+v", report.Characters[0])
	}
	if got := len(report.Women()); got != 2 {
		t.Fatalf("expected 2 women, got %d", got)
	}
	if len(report.Edges) != 1 || report.Edges[0].Source != "Darryl" || report.Edges[0].Target != "Thelma" {
		t.Fatalf("unexpected co-occurrence edges %+v", report.Edges)
	}
	if report.Exchanges[0].MentionsMan || !report.Exchanges[1].MentionsMan {
		t.Fatalf("unexpected male references %+v", report.Exchanges)
	}
	if report.Mentions.Man == 0 {
		t.Fatalf("expected a male pronoun to be counted, got %+v", report.Mentions)
	}
	if report.Score.Value != 3 || report.Score.Exchange != 0 {
		t.Fatalf("expected a passing score on the first block, got %+v", report.Score)
	}
	if report.Dialogue != nil || report.Vocabulary != nil {
		t.Fatal("expected no dialogue split without segments")
	}
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	if _, err := bechdel.Analyze(context.Background(), bechdel.Input{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeWithSegments(t *testing.T) {
	segments := []audio.Segment{
		{Gender: audio.Female, Start: sec(0), End: sec(4.2)},
		{Gender: audio.Male, Start: sec(8.5), End: sec(13)},
	}
	report, err := bechdel.Analyze(context.Background(), bechdel.Input{Cues: parseFixture(t), Cast: fixtureCast, Segments: segments})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Dialogue == nil || len(report.Dialogue.Female) != 2 || len(report.Dialogue.Male) != 2 {
		t.Fatalf("unexpected dialogue split %+v", report.Dialogue)
	}
	if report.Vocabulary == nil {
		t.Fatal("expected vocabulary")
	}
}

func TestDialogueByGender(t *testing.T) {
	cues := []subtitles.Cue{
		{Index: 1, Start: sec(10.2), End: sec(12.5), Lines: []string{"Hello there"}},
		{Index: 2, Start: sec(13.8), End: sec(15.5), Lines: []string{"- Hi!"}},
		{Index: 3, Start: sec(30), End: sec(31), Lines: []string{"Lost line"}},
	}
	segments := []audio.Segment{
		{Gender: audio.Female, Start: 0, End: sec(3)},
		{Gender: audio.Male, Start: sec(3.5), End: sec(6)},
	}
	d := bechdel.DialogueByGender(cues, segments)
	if d.Offset != sec(10.2) {
		t.Fatalf("unexpected offset %v", d.Offset)
	}
	if len(d.Female) != 1 || d.Female[0] != "Hello there" {
		t.Fatalf("unexpected female lines %v", d.Female)
	}
	if len(d.Male) != 1 || d.Male[0] != "Hi!" {
		t.Fatalf("unexpected male lines %v", d.Male)
	}
	if d.Unassigned != 1 {
		t.Fatalf("expected one unassigned cue, got %d", d.Unassigned)
	}
	if d.WomenLineShare != 0.5 {
		t.Fatalf("unexpected line share %v", d.WomenLineShare)
	}
	if math.Abs(d.WomenTimeShare-3/5.5) > 1e-9 {
		t.Fatalf("unexpected time share %v", d.WomenTimeShare)
	}
	if empty := bechdel.DialogueByGender(cues, nil); empty.Unassigned != 3 {
		t.Fatalf("expected all cues unassigned without segments, got %d", empty.Unassigned)
	}
}

func TestSpokenTime(t *testing.T) {
	rows := []audio.Row{
		{Segment: audio.Segment{Gender: audio.Female, Start: 0, End: sec(2)}},
		{Segment: audio.Segment{Gender: audio.Male, Start: sec(2), End: sec(3)}},
		{Segment: audio.Segment{Gender: audio.Female, Start: sec(4), End: sec(5)}},
	}
	times := bechdel.SpokenTime(rows)
	if times[audio.Female] != sec(3) || times[audio.Male] != sec(1) {
		t.Fatalf("unexpected spoken time %v", times)
	}
}

func TestScore(t *testing.T) {
	women := []bechdel.Character{
		{Name: "Thelma", Gender: nlp.Woman},
		{Name: "Louise", Gender: nlp.Woman},
	}
	cases := []struct {
		name   string
		report bechdel.Report
		want   int
	}{
		{"no women", bechdel.Report{Characters: []bechdel.Character{{Name: "Hal", Gender: nlp.Man}}}, 0},
		{"apart", bechdel.Report{Characters: women, Exchanges: []bechdel.Exchange{
			{Characters: []string{"Thelma"}}, {Characters: []string{"Louise"}},
		}}, 1},
		{"about a man", bechdel.Report{Characters: women, Exchanges: []bechdel.Exchange{
			{Characters: []string{"Thelma", "Louise"}, MentionsMan: true},
		}}, 2},
		{"passes", bechdel.Report{Characters: women, Exchanges: []bechdel.Exchange{
			{Characters: []string{"Thelma", "Louise"}, MentionsMan: true},
			{Characters: []string{"Louise", "Thelma"}},
		}}, 3},
	}
	for _, tc := range cases {
		got := bechdel.Score(&tc.report)
		if got.Value != tc.want {
			t.Errorf("%s: score %d, want %d (%s)", tc.name, got.Value, tc.want, got.Reason)
		}
	}
}

type fakeCompleter struct {
	replies []string
	prompts []string
	err     error
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, user)
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func TestQuestions(t *testing.T) {
	fake := &fakeCompleter{replies: []string{
		"```json\n{\"answer\": \"Yes\", \"reasoning\": \"Thelma and Louise are named.\"}\n```",
		`{"answer": " No "}`,
	}}
	answers, err := bechdel.Questions(context.Background(), fake, "Thelma: hi\nLouise: hello", []string{"Q1?", "Q2?"})
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(answers) != 2 || answers[0].Answer != "Yes" || answers[1].Answer != "No" {
		t.Fatalf("unexpected answers %+v", answers)
	}
	if answers[0].Reasoning == "" || answers[1].Question != "Q2?" {
		t.Fatalf("unexpected answer fields %+v", answers)
	}
	if !strings.HasPrefix(fake.prompts[0], "Dialogue:\nThelma: hi") || !strings.HasSuffix(fake.prompts[0], "Question: Q1?\nAnswer:") {
		t.Fatalf("unexpected prompt %q", fake.prompts[0])
	}
}

func TestQuestionsErrors(t *testing.T) {
	if _, err := bechdel.Questions(context.Background(), &fakeCompleter{}, "  ", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := bechdel.Questions(context.Background(), nil, "dialogue", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	bad := &fakeCompleter{replies: []string{"not json"}}
	if _, err := bechdel.Questions(context.Background(), bad, "dialogue", []string{"Q?"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected decode failure, got %v", err)
	}
	defaults := &fakeCompleter{replies: []string{`{"answer":"a"}`, `{"answer":"b"}`, `{"answer":"c"}`}}
	answers, err := bechdel.Questions(context.Background(), defaults, "dialogue", nil)
	if err != nil || len(answers) != len(bechdel.DefaultQuestions) {
		t.Fatalf("expected default questions, got %v %v", answers, err)
	}
}
