// Package highlight renders paste text into highlighted HTML. It plays the
// role syntax highlighting has in any pastebin: a pure function from (text,
// language) to markup, with unknown languages rejected rather than guessed.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/inkbin/inkbin/internal/domain"
)

// Renderer turns raw text plus a language tag into a highlighted representation.
type Renderer interface {
	// Render returns highlighted markup, or domain.ErrUnsupportedLanguage for
	// unknown language tags. Deterministic for identical inputs.
	Render(text, language string) (string, error)
	// Supports reports whether a language tag has a lexer.
	Supports(language string) bool
}

// ChromaRenderer implements Renderer with chroma's HTML formatter.
type ChromaRenderer struct {
	formatter *html.Formatter
	style     *chroma.Style
}

// NewRenderer builds a renderer with line numbers and inline styles, so the
// output is self-contained markup that needs no accompanying stylesheet.
func NewRenderer() *ChromaRenderer {
	style := styles.Get("friendly")
	if style == nil {
		style = styles.Fallback
	}
	return &ChromaRenderer{
		formatter: html.New(html.WithLineNumbers(true)),
		style:     style,
	}
}

func lookupLexer(language string) chroma.Lexer {
	if language == "" || language == domain.FormatNone {
		return nil
	}
	return lexers.Get(strings.ToLower(language))
}

// Supports reports whether the language tag resolves to a lexer.
func (r *ChromaRenderer) Supports(language string) bool {
	return lookupLexer(language) != nil
}

// Render highlights text in the given language.
func (r *ChromaRenderer) Render(text, language string) (string, error) {
	lexer := lookupLexer(language)
	if lexer == nil {
		return "", fmt.Errorf("%q: %w", language, domain.ErrUnsupportedLanguage)
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var sb strings.Builder
	if err := r.formatter.Format(&sb, r.style, it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return sb.String(), nil
}

var _ Renderer = (*ChromaRenderer)(nil)
