//go:build !nogui

package gui

import (
	"net/url"
	"strconv"
	"strings"

	"marky/internal/markdown"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// previewSegments renders preview blocks as rich text. onLink receives the
// target of a tapped hyperlink.
func previewSegments(blocks []markdown.Block, onLink func(string)) []widget.RichTextSegment {
	var segs []widget.RichTextSegment
	for _, b := range blocks {
		switch b.Kind {
		case markdown.Rule:
			segs = append(segs, &widget.SeparatorSegment{})
		case markdown.CodeBlock:
			segs = append(segs, codeSegments(b)...)
		default:
			segs = append(segs, blockSegments(b, onLink)...)
		}
	}
	return segs
}

func blockStyle(b markdown.Block) widget.RichTextStyle {
	switch b.Kind {
	case markdown.Heading:
		switch b.Level {
		case 1:
			return widget.RichTextStyleHeading
		case 2:
			return widget.RichTextStyleSubHeading
		default:
			return widget.RichTextStyleStrong
		}
	case markdown.Quote:
		s := widget.RichTextStyleParagraph
		s.TextStyle.Italic = true
		s.ColorName = theme.ColorNamePlaceHolder
		return s
	case markdown.TableRow:
		s := widget.RichTextStyleParagraph
		s.TextStyle.Monospace = true
		return s
	}
	return widget.RichTextStyleParagraph
}

func blockPrefix(b markdown.Block) string {
	switch b.Kind {
	case markdown.ListItem:
		indent := strings.Repeat("    ", max(b.Level-1, 0))
		marker := "• "
		if b.Number > 0 {
			marker = strconv.Itoa(b.Number) + ". "
		}
		if b.Checked != nil {
			if *b.Checked {
				marker += "☑ "
			} else {
				marker += "☐ "
			}
		}
		return indent + marker
	case markdown.Quote:
		return strings.Repeat("│ ", max(b.Level, 1))
	}
	return ""
}

func blockSegments(b markdown.Block, onLink func(string)) []widget.RichTextSegment {
	base := blockStyle(b)
	inline := base
	inline.Inline = true

	var segs []widget.RichTextSegment
	if p := blockPrefix(b); p != "" {
		segs = append(segs, &widget.TextSegment{Style: inline, Text: p})
	}

	for _, span := range b.Spans {
		if span.URL != "" {
			segs = append(segs, linkSegment(span, onLink))
			continue
		}
		style := inline
		style.TextStyle.Bold = style.TextStyle.Bold || span.Style.Bold
		style.TextStyle.Italic = style.TextStyle.Italic || span.Style.Italic
		if span.Style.Code {
			style.TextStyle.Monospace = true
		}
		if span.Style.Strike {
			style.ColorName = theme.ColorNameDisabled
		}
		segs = append(segs, &widget.TextSegment{Style: style, Text: span.Text})
	}

	// the last text segment ends the paragraph
	if n := len(segs); n > 0 {
		if ts, ok := segs[n-1].(*widget.TextSegment); ok {
			ts.Style.Inline = false
			return segs
		}
	}
	return append(segs, &widget.TextSegment{Style: base})
}

func linkSegment(span markdown.Span, onLink func(string)) widget.RichTextSegment {
	u, err := url.Parse(span.URL)
	if err != nil {
		return &widget.TextSegment{Style: widget.RichTextStyleInline, Text: span.Text}
	}
	target := span.URL
	return &widget.HyperlinkSegment{
		Alignment: fyne.TextAlignLeading,
		Text:      span.Text,
		URL:       u,
		OnTapped: func() {
			if onLink != nil {
				onLink(target)
			}
		},
	}
}

func codeSegments(b markdown.Block) []widget.RichTextSegment {
	var segs []widget.RichTextSegment
	endLine := func() {
		segs = append(segs, &widget.TextSegment{Style: widget.RichTextStyleCodeBlock})
	}

	if len(b.Tokens) == 0 {
		for _, line := range strings.Split(b.Code, "\n") {
			segs = append(segs, &widget.TextSegment{Style: widget.RichTextStyleCodeBlock, Text: line})
		}
		return segs
	}

	for _, tok := range b.Tokens {
		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				endLine()
			}
			if part == "" {
				continue
			}
			style := widget.RichTextStyleCodeBlock
			style.Inline = true
			style.ColorName = tokenColor(tok.Class)
			style.TextStyle.Bold = tok.Bold
			style.TextStyle.Italic = tok.Italic
			segs = append(segs, &widget.TextSegment{Style: style, Text: part})
		}
	}
	// chroma ends code with a newline token, which already closed the line
	if n := len(segs); n > 0 {
		if ts, ok := segs[n-1].(*widget.TextSegment); ok && ts.Style.Inline {
			endLine()
		}
	}
	return segs
}

// tokenColor maps chroma token classes onto theme colours.
func tokenColor(class string) fyne.ThemeColorName {
	switch {
	case strings.HasPrefix(class, "Keyword"):
		return theme.ColorNamePrimary
	case strings.HasPrefix(class, "LiteralString"):
		return theme.ColorNameSuccess
	case strings.HasPrefix(class, "LiteralNumber"):
		return theme.ColorNameWarning
	case strings.HasPrefix(class, "Comment"):
		return theme.ColorNamePlaceHolder
	case strings.HasPrefix(class, "NameFunction"), strings.HasPrefix(class, "NameClass"):
		return theme.ColorNameHyperlink
	case strings.HasPrefix(class, "NameBuiltin"):
		return theme.ColorNameError
	}
	return theme.ColorNameForeground
}
