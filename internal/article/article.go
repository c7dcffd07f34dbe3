// Package article extracts the readable part of a web page.
package article

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinLength is the amount of text, in characters, below which a page is not
// considered an article.
const MinLength = 200

// Payload is the extracted article.
type Payload struct {
	Title    string
	Body     string
	Language string
}

// Extractor extracts articles from parsed HTML documents.
type Extractor interface {
	CanExtract(doc *goquery.Document) bool
	Extract(doc *goquery.Document) *Payload
}

// Readability is a simple content extractor: it looks for the main content
// container, drops page chrome and keeps the text of paragraphs, headings
// and list items.
type Readability struct {
	MinLength int
}

var _ Extractor = Readability{}

var (
	noise      = "script, style, noscript, iframe, svg, nav, header, footer, aside, form, button, figure figcaption"
	containers = []string{"article", "main", "[role=main]", "#content", ".post", ".entry-content", "body"}
	blocks     = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"
	spaces     = regexp.MustCompile(`[ \t\f\r]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Parse parses an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse document: %w", err)
	}
	return doc, nil
}

// CanExtract reports whether the document contains enough text to be an
// article.
func (r Readability) CanExtract(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	return len([]rune(r.body(doc))) >= r.minLength()
}

// Extract returns the article, or nil when there is none.
func (r Readability) Extract(doc *goquery.Document) *Payload {
	if !r.CanExtract(doc) {
		return nil
	}
	return &Payload{
		Title:    title(doc),
		Body:     r.body(doc),
		Language: lang(doc),
	}
}

func (r Readability) minLength() int {
	if r.MinLength > 0 {
		return r.MinLength
	}
	return MinLength
}

func title(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func lang(doc *goquery.Document) string {
	l, _ := doc.Find("html").Attr("lang")
	return strings.TrimSpace(l)
}

func (r Readability) body(doc *goquery.Document) string {
	var root *goquery.Selection
	for _, c := range containers {
		if s := doc.Find(c).First(); s.Length() > 0 {
			root = s.Clone()
			break
		}
	}
	if root == nil {
		return ""
	}
	root.Find(noise).Remove()

	var parts []string
	root.Find(blocks).Each(func(_ int, s *goquery.Selection) {
		// nested blocks (p inside li or blockquote) are collected by their parent.
		if s.ParentsFiltered(blocks).Length() > 0 {
			return
		}
		if t := clean(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return clean(root.Text())
	}
	return strings.Join(parts, "\n\n")
}

func clean(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
