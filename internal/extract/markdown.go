package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"fmfm/internal/tokenizer"
)

// Markdown treats a document as a single unpaginated chunk: rendered to HTML,
// stripped to text and drawn onto a text card for its cover.
type Markdown struct {
	md     goldmark.Markdown
	strict *bluemonday.Policy
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		strict: bluemonday.StrictPolicy(),
	}
}

func (m *Markdown) Extract(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plain, err := m.PlainText(content)
	if err != nil {
		return nil, err
	}

	res := &Result{
		TitleHint: m.title(content),
		Cover:     TextCard(truncateRunes(plain, TextCardRunes)),
	}
	if plain != "" {
		res.Chunks = []Chunk{{Position: 0, Text: plain}}
	}
	return res, nil
}

// PlainText renders markdown to HTML and strips every tag.
func (m *Markdown) PlainText(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	stripped := html.UnescapeString(m.strict.Sanitize(buf.String()))
	return tokenizer.CleanText(stripped), nil
}

// title returns the first level-1 heading, else the first level-2 heading.
func (m *Markdown) title(content []byte) string {
	doc := m.md.Parser().Parse(text.NewReader(content))

	var h1, h2 string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		switch {
		case heading.Level == 1 && h1 == "":
			h1 = headingText(heading, content)
			return ast.WalkStop, nil
		case heading.Level == 2 && h2 == "":
			h2 = headingText(heading, content)
		}
		return ast.WalkSkipChildren, nil
	})

	if h1 != "" {
		return h1
	}
	return h2
}

func headingText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
