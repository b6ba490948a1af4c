// Package bechdel combines subtitles, cast and speech segments into a
// gender representation report and a heuristic Bechdel test score, and asks
// an LLM open questions about a dialogue.
package bechdel
