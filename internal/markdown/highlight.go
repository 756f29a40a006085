package markdown

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Token is one highlighted run of a code block. Class is the chroma token
// category name ("Keyword", "LiteralString", ...); Colour is a "#rrggbb"
// value from the active style or "" when the style leaves it unset.
type Token struct {
	Text   string
	Class  string
	Colour string
	Bold   bool
	Italic bool
}

var codeStyle = styles.Get("monokai")

// SetCodeStyle selects the chroma style used for code blocks. Unknown names
// fall back to chroma's default style.
func SetCodeStyle(name string) {
	s := styles.Get(name)
	if s == nil {
		s = styles.Fallback
	}
	codeStyle = s
}

// Highlight tokenises code with the lexer for lang, guessing from the
// content when lang is empty or unknown.
func Highlight(lang, code string) []Token {
	if code == "" {
		return nil
	}

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []Token{{Text: code, Class: chroma.Text.String()}}
	}

	var out []Token
	for _, tok := range iterator.Tokens() {
		entry := codeStyle.Get(tok.Type)
		t := Token{
			Text:   tok.Value,
			Class:  tok.Type.String(),
			Bold:   entry.Bold == chroma.Yes,
			Italic: entry.Italic == chroma.Yes,
		}
		if entry.Colour.IsSet() {
			t.Colour = entry.Colour.String()
		}
		out = append(out, t)
	}
	return out
}
