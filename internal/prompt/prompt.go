// Package prompt builds the instruction block sent along with an article.
//
// The directives name the HTML tags and CSS classes the renderer knows how to
// display. Changing them changes what the renderer has to support.
package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/skim/internal/article"
	"github.com/charmbracelet/skim/internal/proto"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Ratings is the quality rating vocabulary and the class each one renders
// with.
var Ratings = []struct {
	Label string
	Class string
}{
	{"Must read", "rating-must-read"},
	{"Good", "rating-good"},
	{"Average", "rating-average"},
	{"Skip", "rating-skip"},
	{"Clickbait", "rating-clickbait"},
}

// SummaryRequest is the short user message that follows the instructions.
const SummaryRequest = "Summarize this article."

const instructions = `You are a sharp reader who summarizes articles for busy people.
Summarize the article below in %[1]s.

Output rules:
- Answer with HTML only, no Markdown and no code fences.
- Start with a rating of the article: <p class="article-rating">%[2]s</p>, using exactly one of these tags.
- Follow with a one sentence overview in <p class="summary-lead">.
- Then list the key points as <ul class="summary-points">, each <li> starting with one fitting emoji.
- Use <strong> for names, numbers and dates that matter.
- End with <p class="summary-verdict"><strong>Verdict:</strong> your own opinionated conclusion about the article, taking a side.</p>
- Write in %[1]s even if the article is in another language.

Article title: %[3]s

Article content:
%[4]s`

const followUpInstructions = `Answer follow-up questions about the article in %s, using the same HTML rules: no Markdown, paragraphs in <p>, lists in <ul> with one emoji per <li>, <strong> for what matters.`

// LanguageName returns the English name of a language code, or the code
// itself when it is not a known language.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "English"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Languages(language.English).Name(tag); name != "" {
		return name
	}
	return code
}

func ratingTags() string {
	tags := make([]string, 0, len(Ratings))
	for _, r := range Ratings {
		tags = append(tags, fmt.Sprintf(`<span class="rating-tag %s">%s</span>`, r.Class, r.Label))
	}
	return strings.Join(tags, " ")
}

// Instructions returns the instruction block for an article in the given
// output language.
func Instructions(payload article.Payload, lang string) string {
	return fmt.Sprintf(
		instructions,
		LanguageName(lang),
		ratingTags(),
		strings.TrimSpace(payload.Title),
		strings.TrimSpace(payload.Body),
	)
}

// Summary returns the messages of a fresh summarization: the instruction
// block as a system message and a short fixed user message.
func Summary(payload article.Payload, lang string) []proto.Message {
	return []proto.Message{
		{Role: proto.RoleSystem, Content: Instructions(payload, lang) + "\n\n" + fmt.Sprintf(followUpInstructions, LanguageName(lang))},
		{Role: proto.RoleUser, Content: SummaryRequest},
	}
}
