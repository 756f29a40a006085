// Package markdown turns document text into the preview model: a flat list
// of blocks made of styled inline spans. Parsing is delegated to goldmark
// (with GitHub flavoured extensions) and fenced code is tokenised by chroma.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Kind identifies a preview block.
type Kind int

const (
	Paragraph Kind = iota
	Heading
	CodeBlock
	ListItem
	Quote
	Rule
	TableRow
)

var kindNames = [...]string{"paragraph", "heading", "code", "list-item", "quote", "rule", "table-row"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Style is the inline emphasis carried by a span.
type Style struct {
	Bold   bool
	Italic bool
	Code   bool
	Strike bool
}

// Span is a run of text with one style. URL is set for links.
type Span struct {
	Text  string
	Style Style
	URL   string
}

// Block is one displayable unit of the preview.
type Block struct {
	Kind  Kind
	Spans []Span
	// Level is the heading level (1-6) for headings and the nesting depth
	// (1-based) for list items and quotes.
	Level int
	// Ordered list items carry their number; zero for bullets.
	Number int
	// Language and Code are set for code blocks.
	Language string
	Code     string
	Tokens   []Token
	// Checked is non-nil for task list items.
	Checked *bool
}

// Text concatenates the block's spans (or returns the code).
func (b Block) Text() string {
	if b.Kind == CodeBlock {
		return b.Code
	}
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Links returns the URLs referenced by the block, in order.
func (b Block) Links() []string {
	var out []string
	for _, s := range b.Spans {
		if s.URL != "" {
			out = append(out, s.URL)
		}
	}
	return out
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse converts src into preview blocks. It never fails: text goldmark
// cannot make sense of ends up in paragraphs.
func Parse(src string) []Block {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))
	p := &parser{source: source}
	p.blocks(doc, 0, 0)
	return p.out
}

type parser struct {
	source []byte
	out    []Block
}

func (p *parser) blocks(parent ast.Node, listDepth, quoteDepth int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		p.block(n, listDepth, quoteDepth)
	}
}

func (p *parser) block(n ast.Node, listDepth, quoteDepth int) {
	switch node := n.(type) {
	case *ast.Heading:
		p.out = append(p.out, Block{Kind: Heading, Level: node.Level, Spans: p.inlines(node)})
	case *ast.Paragraph, *ast.TextBlock:
		kind, level := Paragraph, 0
		if quoteDepth > 0 {
			kind, level = Quote, quoteDepth
		}
		p.out = append(p.out, Block{Kind: kind, Level: level, Spans: p.inlines(node)})
	case *ast.FencedCodeBlock:
		lang := string(node.Language(p.source))
		code := p.lines(node)
		p.out = append(p.out, Block{Kind: CodeBlock, Language: lang, Code: code, Tokens: Highlight(lang, code)})
	case *ast.CodeBlock:
		code := p.lines(node)
		p.out = append(p.out, Block{Kind: CodeBlock, Code: code, Tokens: Highlight("", code)})
	case *ast.HTMLBlock:
		p.out = append(p.out, Block{Kind: CodeBlock, Language: "html", Code: p.lines(node)})
	case *ast.ThematicBreak:
		p.out = append(p.out, Block{Kind: Rule})
	case *ast.Blockquote:
		p.blocks(node, listDepth, quoteDepth+1)
	case *ast.List:
		p.list(node, listDepth+1, quoteDepth)
	case *extast.Table:
		p.table(node)
	default:
		if n.HasChildren() {
			p.blocks(n, listDepth, quoteDepth)
		}
	}
}

func (p *parser) list(list *ast.List, depth, quoteDepth int) {
	number := 0
	if list.IsOrdered() {
		number = list.Start
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		b := Block{Kind: ListItem, Level: depth, Number: number}
		var nested []ast.Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if len(b.Spans) > 0 {
					b.Spans = append(b.Spans, Span{Text: " "})
				}
				spans := p.inlines(c)
				if cb, ok := c.FirstChild().(*extast.TaskCheckBox); ok {
					checked := cb.IsChecked
					b.Checked = &checked
				}
				b.Spans = append(b.Spans, spans...)
			default:
				nested = append(nested, c)
			}
		}
		p.out = append(p.out, b)
		for _, c := range nested {
			p.block(c, depth, quoteDepth)
		}
		if number > 0 {
			number++
		}
	}
}

func (p *parser) table(table *extast.Table) {
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		b := Block{Kind: TableRow}
		_, header := row.(*extast.TableHeader)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if len(b.Spans) > 0 {
				b.Spans = append(b.Spans, Span{Text: " | "})
			}
			spans := p.inlines(cell)
			if header {
				for i := range spans {
					spans[i].Style.Bold = true
				}
			}
			b.Spans = append(b.Spans, spans...)
		}
		p.out = append(p.out, b)
	}
}

func (p *parser) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(p.source))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (p *parser) inlines(n ast.Node) []Span {
	var spans []Span
	p.collect(n, Style{}, "", &spans)
	return merge(spans)
}

func (p *parser) collect(n ast.Node, style Style, url string, out *[]Span) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			*out = append(*out, Span{Text: string(node.Segment.Value(p.source)), Style: style, URL: url})
			if node.SoftLineBreak() || node.HardLineBreak() {
				*out = append(*out, Span{Text: " ", Style: style, URL: url})
			}
		case *ast.String:
			*out = append(*out, Span{Text: string(node.Value), Style: style, URL: url})
		case *ast.CodeSpan:
			s := style
			s.Code = true
			var sb strings.Builder
			for t := node.FirstChild(); t != nil; t = t.NextSibling() {
				if txt, ok := t.(*ast.Text); ok {
					sb.Write(txt.Segment.Value(p.source))
				}
			}
			*out = append(*out, Span{Text: sb.String(), Style: s, URL: url})
		case *ast.Emphasis:
			s := style
			if node.Level >= 2 {
				s.Bold = true
			} else {
				s.Italic = true
			}
			p.collect(node, s, url, out)
		case *extast.Strikethrough:
			s := style
			s.Strike = true
			p.collect(node, s, url, out)
		case *ast.Link:
			p.collect(node, style, string(node.Destination), out)
		case *ast.AutoLink:
			u := string(node.URL(p.source))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(u, "mailto:") {
				u = "mailto:" + u
			}
			*out = append(*out, Span{Text: string(node.Label(p.source)), Style: style, URL: u})
		case *ast.Image:
			*out = append(*out, Span{Text: "[image: " + string(node.Destination) + "]", Style: Style{Italic: true}, URL: string(node.Destination)})
		case *ast.RawHTML:
			segs := node.Segments
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				*out = append(*out, Span{Text: string(seg.Value(p.source)), Style: Style{Code: true}})
			}
		case *extast.TaskCheckBox:
			// reported on the list item
		default:
			p.collect(c, style, url, out)
		}
	}
}

// merge joins adjacent spans that share style and link.
func merge(spans []Span) []Span {
	var out []Span
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Style == s.Style && out[n-1].URL == s.URL {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}
