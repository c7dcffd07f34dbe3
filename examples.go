package main

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

var examples = map[string]string{
	"Summarize an article":              `skim https://go.dev/blog/go1.24`,
	"Summarize it in German, then chat": `skim --language de --chat https://go.dev/blog/go1.24`,
	"Summarize a saved page":            `curl -s https://go.dev/blog/go1.24 | skim -`,
	"Use a reasoning model once":        `skim -m o4-mini --copy https://go.dev/blog/go1.24`,
}

func randomExample() (string, string) {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	desc := keys[rand.IntN(len(keys))]
	return desc, examples[desc]
}

var flagRE = regexp.MustCompile(`(?:^|\s)(--?[\w-]+)`)

// cheapHighlighting colors flags, pipes and the program name of an example.
func cheapHighlighting(s styles, code string) string {
	code = flagRE.ReplaceAllStringFunc(code, func(m string) string {
		lead := m[:len(m)-len(strings.TrimLeft(m, " "))]
		return lead + s.Flag.Render(strings.TrimLeft(m, " "))
	})
	code = strings.ReplaceAll(code, "|", s.Pipe.Render("|"))
	if rest, ok := strings.CutPrefix(code, "skim "); ok {
		code = s.AppName.Render("skim") + " " + rest
	}
	return code
}
