package bechdel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/llm"
)

// DefaultQuestions are the three Bechdel test criteria.
var DefaultQuestions = []string{
	"Are there at least two named women in this dialogue?",
	"Do two women talk to each other in this dialogue?",
	"Do the women talk about something other than a man?",
}

const systemPrompt = `You are a social scientist, feminist and expert in gender representation in cinema and in culture.
You know everything about the Bechdel test and study gender and ethnic inequalities, in particular how women are represented in movies and the stereotypes shown onscreen.

Answer the question about the dialogue by detailing your reasoning.
Respond only with JSON of the form {"answer": "...", "reasoning": "..."}.`

// Answer is the model's reply to one question.
type Answer struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Prompt renders the user prompt for one question.
func Prompt(dialogue, question string) string {
	var b strings.Builder
	b.WriteString("Dialogue:\n")
	b.WriteString(strings.TrimSpace(dialogue))
	b.WriteString("\n-------------------------------\n")
	fmt.Fprintf(&b, "Question: %s\nAnswer:", strings.TrimSpace(question))
	return b.String()
}

// Questions asks each question about dialogue, one completion per question.
// A nil or empty questions list selects DefaultQuestions.
func Questions(ctx context.Context, client llm.Completer, dialogue string, questions []string) ([]Answer, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "bechdel", "questions", "no llm client", nil)
	}
	if strings.TrimSpace(dialogue) == "" {
		return nil, services.Wrap(services.ErrValidation, "bechdel", "questions", "empty dialogue", nil)
	}
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	answers := make([]Answer, 0, len(questions))
	for _, q := range questions {
		content, err := client.CompleteJSON(ctx, systemPrompt, Prompt(dialogue, q))
		if err != nil {
			return answers, err
		}
		var reply struct {
			Answer    string `json:"answer"`
			Reasoning string `json:"reasoning"`
		}
		if err := llm.DecodeLLMJSON(content, &reply); err != nil {
			return answers, services.Wrap(services.ErrValidation, "bechdel", "questions", "decode answer", err)
		}
		answers = append(answers, Answer{
			Question:  q,
			Answer:    strings.TrimSpace(reply.Answer),
			Reasoning: strings.TrimSpace(reply.Reasoning),
		})
	}
	return answers, nil
}

// DialogueText joins the cleaned text of dialogue blocks for prompting, one
// block per paragraph.
func DialogueText(exchanges []Exchange) string {
	parts := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		parts = append(parts, ex.Text)
	}
	return strings.Join(parts, "\n\n")
}
