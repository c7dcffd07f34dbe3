package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/skim/internal/proto"
)

const wordWrap = 80

var whitespace = regexp.MustCompile(`\s+`)

// toMarkdown converts summary HTML to Markdown. Unknown tags keep their
// text.
func toMarkdown(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("could not parse summary: %w", err)
	}
	var blocks []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if b := block(s); b != "" {
			blocks = append(blocks, b)
		}
	})
	return strings.Join(blocks, "\n\n"), nil
}

func block(s *goquery.Selection) string {
	switch name := goquery.NodeName(s); name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return strings.Repeat("#", int(name[1]-'0')) + " " + inline(s)
	case "ul", "ol":
		var items []string
		s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
			marker := "-"
			if name == "ol" {
				marker = fmt.Sprintf("%d.", i+1)
			}
			items = append(items, marker+" "+inline(li))
		})
		return strings.Join(items, "\n")
	case "blockquote":
		return "> " + strings.ReplaceAll(inline(s), "\n", "\n> ")
	case "pre":
		return "```\n" + strings.TrimSpace(s.Text()) + "\n```"
	case "div", "section", "article":
		var blocks []string
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if b := block(c); b != "" {
				blocks = append(blocks, b)
			}
		})
		return strings.Join(blocks, "\n\n")
	case "#comment":
		return ""
	default:
		return inline(s)
	}
}

func inline(s *goquery.Selection) string {
	if goquery.NodeName(s) == "#text" {
		return strings.TrimSpace(whitespace.ReplaceAllString(s.Text(), " "))
	}
	var sb strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			sb.WriteString(whitespace.ReplaceAllString(c.Text(), " "))
		case "strong", "b":
			sb.WriteString(wrap("**", inline(c)))
		case "em", "i":
			sb.WriteString(wrap("*", inline(c)))
		case "code":
			sb.WriteString(wrap("`", c.Text()))
		case "br":
			sb.WriteString("  \n")
		case "a":
			href, ok := c.Attr("href")
			if !ok {
				sb.WriteString(inline(c))
				return
			}
			sb.WriteString("[" + strings.TrimSpace(inline(c)) + "](" + href + ")")
		case "span":
			if c.HasClass("rating-tag") {
				sb.WriteString(wrap("`", c.Text()))
				return
			}
			sb.WriteString(inline(c))
		case "#comment":
		default:
			sb.WriteString(inline(c))
		}
	})
	return strings.TrimSpace(sb.String())
}

func wrap(mark, s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return mark + s + mark
}

// transcript returns the chat as Markdown, without the instruction block.
func transcript(chat proto.Conversation) string {
	out := make(proto.Conversation, 0, len(chat))
	for _, msg := range chat {
		if msg.Role == proto.RoleAssistant {
			if md, err := toMarkdown(msg.Content); err == nil {
				msg.Content = "\n\n" + md
			}
		}
		out = append(out, msg)
	}
	return strings.TrimSpace(out.String())
}

// formatOutput returns what gets printed for an answer: the HTML itself in
// raw mode, Markdown otherwise, styled when printing to a terminal.
func formatOutput(html string, raw, tty bool) (string, error) {
	if raw {
		return html, nil
	}
	md, err := toMarkdown(html)
	if err != nil {
		return "", err
	}
	if !tty {
		return md, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("could not create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("could not render markdown: %w", err)
	}
	return out, nil
}
