// Package highlight renders generated source code as HTML for the builder page.
package highlight

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

const (
	pythonLexerName = "python"
	styleName       = "github"

	errorMessageTokenise = "highlight: tokenise"
	errorMessageFormat   = "highlight: format"
)

// Python returns the source as a highlighted <pre> block with inline styles.
func Python(source string) (template.HTML, error) {
	lexer := lexers.Get(pythonLexerName)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get(styleName)
	if style == nil {
		style = chromastyles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithLineNumbers(true), chromahtml.TabWidth(4))

	iterator, tokeniseErr := lexer.Tokenise(nil, source)
	if tokeniseErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageTokenise, tokeniseErr)
	}

	var buffer bytes.Buffer
	if formatErr := formatter.Format(&buffer, style, iterator); formatErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageFormat, formatErr)
	}
	return template.HTML(buffer.String()), nil
}
