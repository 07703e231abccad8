package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatrelay"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// minWidth keeps deeply indented content readable on narrow terminals.
const minWidth = 10

type styles struct {
	title   lipgloss.Style // level 1 headings
	heading lipgloss.Style
	strong  lipgloss.Style
	emph    lipgloss.Style
	code    lipgloss.Style // inline code
	link    lipgloss.Style
	note    lipgloss.Style // link references and URLs
	muted   lipgloss.Style
	run     lipgloss.Style
}

func newStyles(theme chatrelay.Theme) styles {
	accent := ansiColor(theme.Accent)
	return styles{
		title:   lipgloss.NewStyle().Foreground(accent).Bold(true).Underline(true),
		heading: lipgloss.NewStyle().Foreground(accent).Bold(true),
		strong:  lipgloss.NewStyle().Bold(true),
		emph:    lipgloss.NewStyle().Italic(true),
		code:    lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)).Foreground(accent),
		link:    lipgloss.NewStyle().Foreground(accent).Underline(true),
		note:    lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)),
		muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		run:     lipgloss.NewStyle().Foreground(ansiColor(theme.Success)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// renderer turns one markdown document into terminal text. Links whose label
// differs from their target are numbered, and the targets are listed under
// the block that cites them, broken at any character to fit the width.
type renderer struct {
	st     styles
	source []byte

	code  []CodeBlock
	links int
	notes []string
}

func newRenderer(theme chatrelay.Theme, source []byte) *renderer {
	return &renderer{st: newStyles(theme), source: source}
}

func (r *renderer) render(width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(r.source))
	return strings.Join(r.blocks(doc, width, "\n\n"), "\n\n")
}

// blocks renders the children of node, each followed by the notes for the
// links it cites. Children of tight list items are joined with sep by the
// caller.
func (r *renderer) blocks(node ast.Node, width int, sep string) []string {
	var out []string
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		b := r.block(c, width, sep)
		if notes := r.flushNotes(width); notes != "" {
			b += "\n" + notes
		}
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (r *renderer) block(node ast.Node, width int, sep string) string {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return wrap(r.inline(n), width)

	case *ast.Heading:
		style := r.st.heading
		if n.Level == 1 {
			style = r.st.title
		}
		return wrap(style.Render(r.inline(n)), width)

	case *ast.FencedCodeBlock:
		lang := string(n.Language(r.source))
		src := blockSource(n, r.source)
		if lang == "" {
			return r.gutter(src)
		}
		r.code = append(r.code, CodeBlock{Language: lang, Source: src})
		label := r.st.muted.Render(lang+"  ") + r.st.run.Render(fmt.Sprintf("▶ run %d", len(r.code)))
		return label + "\n" + r.gutter(highlight(strings.TrimRight(src, "\n"), lang))

	case *ast.CodeBlock:
		return r.gutter(blockSource(n, r.source))

	case *ast.List:
		return r.list(n, width)

	case *ast.Blockquote:
		bar := r.st.muted.Render("▎") + " "
		body := strings.Join(r.blocks(n, width-2, "\n\n"), "\n\n")
		return indent(bar, bar, body)

	case *ast.ThematicBreak:
		return r.st.muted.Render(strings.Repeat("─", min(width, 40)))

	case *ast.HTMLBlock:
		return r.st.muted.Render(strings.TrimRight(blockSource(n, r.source), "\n"))

	default:
		return strings.Join(r.blocks(node, width, sep), sep)
	}
}

func (r *renderer) list(l *ast.List, width int) string {
	sep := "\n\n"
	if l.IsTight {
		sep = "\n"
	}
	var items []string
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		pad := runewidth.StringWidth(marker)
		body := strings.Join(r.blocks(c, width-pad, sep), sep)
		items = append(items, indent(marker, strings.Repeat(" ", pad), body))
	}
	return strings.Join(items, sep)
}

// gutter writes code line by line behind a muted bar, without reflow.
func (r *renderer) gutter(code string) string {
	bar := r.st.muted.Render("│") + " "
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	for i, line := range lines {
		lines[i] = bar + line
	}
	return strings.Join(lines, "\n")
}

// flushNotes lists the targets of links cited since the last flush.
func (r *renderer) flushNotes(width int) string {
	if len(r.notes) == 0 {
		return ""
	}
	first := r.links - len(r.notes) + 1
	lines := make([]string, 0, len(r.notes))
	for i, url := range r.notes {
		ref := fmt.Sprintf("[%d] ", first+i)
		pad := runewidth.StringWidth(ref)
		parts := breakAll(url, max(width-pad, minWidth))
		for j, p := range parts {
			parts[j] = r.st.note.Render(p)
		}
		lines = append(lines, indent(r.st.note.Render(ref), strings.Repeat(" ", pad), strings.Join(parts, "\n")))
	}
	r.notes = r.notes[:0]
	return strings.Join(lines, "\n")
}

func (r *renderer) cite(url string) string {
	r.links++
	r.notes = append(r.notes, url)
	return r.st.note.Render(fmt.Sprintf("[%d]", r.links))
}

func (r *renderer) inline(node ast.Node) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c)
	}
	return b.String()
}

func (r *renderer) writeInline(b *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(r.source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(r.st.emph.Render(r.inline(n)))
		} else {
			b.WriteString(r.st.strong.Render(r.inline(n)))
		}

	case *ast.CodeSpan:
		b.WriteString(r.st.code.Render(r.inline(n)))

	case *ast.Link:
		label := r.inline(n)
		url := string(n.Destination)
		b.WriteString(r.st.link.Render(label))
		if label != url {
			b.WriteString(r.cite(url))
		}

	case *ast.AutoLink:
		b.WriteString(r.st.link.Render(string(n.URL(r.source))))

	case *ast.Image:
		b.WriteString("🖼 " + r.inline(n))
		b.WriteString(r.cite(string(n.Destination)))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(r.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c)
		}
	}
}

// blockSource returns the raw text of a code or HTML block.
func blockSource(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(max(width, minWidth)).Render(s)
}

// indent prefixes the first line of body with first and every other line
// with rest.
func indent(first, rest, body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = first + line
		} else {
			lines[i] = rest + line
		}
	}
	return strings.Join(lines, "\n")
}

// breakAll splits s into lines of at most width cells, breaking anywhere.
func breakAll(s string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		w     int
	)
	for _, rn := range s {
		rw := runewidth.RuneWidth(rn)
		if w > 0 && w+rw > width {
			lines = append(lines, cur.String())
			cur.Reset()
			w = 0
		}
		cur.WriteRune(rn)
		w += rw
	}
	if cur.Len() > 0 || len(lines) == 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
