// Package transform prepares generated answer text for speech synthesis.
package transform

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Speakable strips markdown structure from answer text so the synthesis
// gateway receives plain prose: headings, emphasis and link targets are
// dropped, list items and paragraphs become sentences on their own lines,
// and code blocks are omitted entirely.
func Speakable(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					current.WriteByte(' ')
				}
			}

		case *ast.CodeSpan:
			if entering {
				for c := node.FirstChild(); c != nil; c = c.NextSibling() {
					if t, ok := c.(*ast.Text); ok {
						current.Write(t.Segment.Value(source))
					}
				}
			}
			return ast.WalkSkipChildren, nil

		default:
			if !entering && n.Type() == ast.TypeBlock {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return strings.Join(blocks, "\n")
}
