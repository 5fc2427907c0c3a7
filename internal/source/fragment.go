package source

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// SelectHTML extracts the inner HTML of the first element matching selector.
// If nothing matches, the input is returned unchanged.
func SelectHTML(selector string) (TransformerFunc, error) {
	compiled, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	return func(input []byte) ([]byte, error) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML document: %w", err)
		}
		sel := doc.FindMatcher(compiled).First()
		if sel.Length() == 0 {
			return input, nil
		}
		innerHTML, err := sel.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to extract %q: %w", selector, err)
		}
		return []byte(innerHTML), nil
	}, nil
}

func compileSelector(selector string) (cascadia.Selector, error) {
	compiled, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return compiled, nil
}

// SanitizeHTML strips elements and attributes that are unsafe to embed from
// user-generated HTML.
func SanitizeHTML() TransformerFunc {
	policy := bluemonday.UGCPolicy()
	return func(input []byte) ([]byte, error) {
		return policy.SanitizeBytes(input), nil
	}
}

// MarkdownToHTML converts a CommonMark Markdown input into HTML. Note that the
// produced HTML is _not_ sanitized.
func MarkdownToHTML() TransformerFunc {
	markdown := goldmark.New(
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Table,
			extension.Strikethrough,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return func(input []byte) ([]byte, error) {
		output := &bytes.Buffer{}
		if err := markdown.Convert(input, output); err != nil {
			return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
		}
		return output.Bytes(), nil
	}
}
