package tui

import (
	"fmt"
	"strconv"
	"strings"

	"marky/internal/markdown"

	"github.com/charmbracelet/lipgloss"
)

// renderPreview lays blocks out for a terminal width columns wide. Links
// are numbered in order of appearance; the returned slice holds their
// targets so a digit key can open them.
func renderPreview(blocks []markdown.Block, width int) (string, []string) {
	if width < 10 {
		width = 10
	}
	var links []string
	out := make([]string, 0, len(blocks))

	for i, b := range blocks {
		var s string
		switch b.Kind {
		case markdown.Rule:
			s = RuleStyle.Render(strings.Repeat("─", width))
		case markdown.CodeBlock:
			s = renderCode(b, width)
		default:
			text := renderSpans(b.Spans, &links)
			prefix := blockPrefix(b)
			body := lipgloss.NewStyle().Width(width - lipgloss.Width(prefix)).Render(text)
			switch {
			case b.Kind == markdown.Heading && b.Level == 1:
				body = TopHeadingStyle.Render(body)
			case b.Kind == markdown.Heading:
				body = HeadingStyle.Render(body)
			case b.Kind == markdown.Quote:
				body = QuoteStyle.Render(body)
			}
			s = prefixLines(prefix, body)
		}

		// list items and table rows sit together; other blocks get air
		if i > 0 && !(tight(b) && tight(blocks[i-1])) {
			out = append(out, "")
		}
		out = append(out, s)
	}
	return strings.Join(out, "\n"), links
}

func tight(b markdown.Block) bool {
	return b.Kind == markdown.ListItem || b.Kind == markdown.TableRow
}

func blockPrefix(b markdown.Block) string {
	switch b.Kind {
	case markdown.ListItem:
		marker := "• "
		if b.Number > 0 {
			marker = strconv.Itoa(b.Number) + ". "
		}
		if b.Checked != nil {
			if *b.Checked {
				marker += "[x] "
			} else {
				marker += "[ ] "
			}
		}
		return strings.Repeat("  ", max(b.Level-1, 0)) + marker
	case markdown.Quote:
		return QuoteStyle.Render(strings.Repeat("│ ", max(b.Level, 1)))
	}
	return ""
}

// prefixLines puts prefix before the first line of body and indents the
// rest to match.
func prefixLines(prefix, body string) string {
	if prefix == "" {
		return body
	}
	pad := strings.Repeat(" ", lipgloss.Width(prefix))
	lines := strings.Split(body, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = prefix + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func renderSpans(spans []markdown.Span, links *[]string) string {
	var sb strings.Builder
	for _, sp := range spans {
		st := lipgloss.NewStyle().
			Bold(sp.Style.Bold).
			Italic(sp.Style.Italic).
			Strikethrough(sp.Style.Strike)
		if sp.Style.Code {
			st = st.Inherit(CodeStyle)
		}
		if sp.URL != "" {
			*links = append(*links, sp.URL)
			sb.WriteString(LinkStyle.Inherit(st).Render(sp.Text))
			sb.WriteString(StatusStyle.Render(fmt.Sprintf("[%d]", len(*links))))
			continue
		}
		sb.WriteString(st.Render(sp.Text))
	}
	return sb.String()
}

func renderCode(b markdown.Block, width int) string {
	var sb strings.Builder
	if len(b.Tokens) == 0 {
		sb.WriteString(CodeStyle.Render(b.Code))
	} else {
		for _, tok := range b.Tokens {
			st := lipgloss.NewStyle().Bold(tok.Bold).Italic(tok.Italic)
			if tok.Colour != "" {
				st = st.Foreground(lipgloss.Color(tok.Colour))
			}
			// style line by line so newlines stay outside the escapes
			parts := strings.Split(tok.Text, "\n")
			for i, p := range parts {
				if i > 0 {
					sb.WriteByte('\n')
				}
				if p != "" {
					sb.WriteString(st.Render(expandTabs(p)))
				}
			}
		}
	}
	code := strings.TrimRight(sb.String(), "\n")
	if b.Language != "" {
		code = StatusStyle.Render(b.Language) + "\n" + code
	}
	return CodeBlockStyle.MaxWidth(width).Render(code)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
