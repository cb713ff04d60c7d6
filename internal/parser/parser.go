// Package parser extracts image references and the title from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/linkmend/internal/models"
)

var (
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^\)]+)\)`)
	titleRe = regexp.MustCompile(`\s+"[^"]*"$`)
)

var engine = goldmark.New()

// Result holds the output of parsing a Markdown file.
type Result struct {
	Title string
	Refs  []models.ImageRef
}

// Parse extracts every `![alt](path)` reference from data in document order.
// Document is left empty on the returned refs; callers fill it in.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Title: deriveTitle(fm, body),
		Refs:  extractImages(data),
	}
}

// extractImages matches image syntax over the raw bytes so line numbers are
// relative to the start of the file, frontmatter included.
func extractImages(data []byte) []models.ImageRef {
	matches := imageRe.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return nil
	}
	rendered := renderedDestinations(data)

	refs := make([]models.ImageRef, 0, len(matches))
	line, last := 1, 0
	for _, m := range matches {
		line += bytes.Count(data[last:m[0]], []byte("\n"))
		last = m[0]

		path := destination(string(data[m[4]:m[5]]))
		refs = append(refs, models.ImageRef{
			Line:    line,
			Alt:     string(data[m[2]:m[3]]),
			Path:    path,
			Match:   string(data[m[0]:m[1]]),
			Renders: rendered[path],
		})
	}
	return refs
}

// destination trims surrounding whitespace, an optional "title" suffix and
// the angle brackets of a <...> destination.
func destination(raw string) string {
	d := strings.TrimSpace(raw)
	if loc := titleRe.FindStringIndex(d); loc != nil && loc[0] > 0 {
		d = strings.TrimSpace(d[:loc[0]])
	}
	if len(d) > 2 && strings.HasPrefix(d, "<") && strings.HasSuffix(d, ">") {
		d = d[1 : len(d)-1]
	}
	return d
}

// renderedDestinations returns the destinations goldmark turns into images.
// A destination with an unescaped space never makes it into this set.
func renderedDestinations(data []byte) map[string]bool {
	out := make(map[string]bool)
	doc := engine.Parser().Parse(text.NewReader(data))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			out[string(img.Destination)] = true
		}
		return ast.WalkContinue, nil
	})
	return out
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}

	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
