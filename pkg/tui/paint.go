package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/host"
)

type cell struct {
	r      rune
	style  tcell.Style
	cursor bool
}

// painter lays a host tree out as lines of styled cells.
type painter struct {
	lines [][]cell
	cur   []cell
	focus *dom.Element
	// bullet is owed to the next line that gets content.
	bullet      bool
	bulletStyle tcell.Style
}

func (p *painter) newline() {
	if len(p.cur) > 0 {
		p.lines = append(p.lines, p.cur)
		p.cur = nil
	}
}

func (p *painter) text(s string, style tcell.Style) {
	for _, r := range s {
		if r == '\n' {
			p.newline()
			continue
		}
		if p.bullet && len(p.cur) == 0 {
			p.bullet = false
			p.cur = append(p.cur, cell{r: '•', style: p.bulletStyle}, cell{r: ' ', style: p.bulletStyle})
		}
		p.cur = append(p.cur, cell{r: r, style: style})
	}
}

func (p *painter) children(el *dom.Element, style tcell.Style) {
	for _, child := range el.ChildNodes() {
		p.node(child, style)
	}
}

func (p *painter) node(n host.Node, style tcell.Style) {
	switch n := n.(type) {
	case host.Text:
		p.text(n.Data(), style)
	case *dom.Element:
		p.element(n, style)
	}
}

func (p *painter) element(el *dom.Element, style tcell.Style) {
	if _, hidden := el.Attribute("hidden"); hidden {
		return
	}
	style = styleFor(el, style)
	if el == p.focus {
		style = style.Reverse(true)
	}
	block := blockTags[el.TagName()]
	if block {
		p.newline()
	} else if isControl(el) {
		p.separate()
	}

	switch el.TagName() {
	case "li":
		p.bullet, p.bulletStyle = true, style
		p.children(el, style)
		p.bullet = false
	case "input":
		p.input(el, style)
	case "button":
		p.text("<", style)
		p.children(el, style)
		p.text(">", style)
	default:
		p.children(el, style)
	}

	if block {
		p.newline()
	} else if isControl(el) {
		p.text(" ", tcell.StyleDefault)
	}
}

func isControl(el *dom.Element) bool {
	return el.TagName() == "input" || el.TagName() == "button"
}

// separate keeps a control from running into the text before it.
func (p *painter) separate() {
	if n := len(p.cur); n > 0 && p.cur[n-1].r != ' ' {
		p.cur = append(p.cur, cell{r: ' ', style: tcell.StyleDefault})
	}
}

func (p *painter) input(el *dom.Element, style tcell.Style) {
	if controlKind(el) == controlCheckbox {
		if checked, _ := el.Property("checked").(bool); checked {
			p.text("[x]", style)
		} else {
			p.text("[ ]", style)
		}
		return
	}
	value, _ := el.Property("value").(string)
	p.text("[", style)
	if value == "" {
		placeholder, _ := el.Attribute("placeholder")
		p.text(placeholder, style.Dim(true))
	} else {
		p.text(value, style)
	}
	if el == p.focus {
		p.cur = append(p.cur, cell{r: ']', style: style, cursor: true})
		return
	}
	p.text("]", style)
}

func styleFor(el *dom.Element, style tcell.Style) tcell.Style {
	switch el.TagName() {
	case "h1", "h2", "h3", "h4", "h5", "h6", "strong", "b":
		style = style.Bold(true)
	case "em", "i":
		style = style.Italic(true)
	case "a":
		style = style.Underline(true)
	}
	if class, _ := el.Attribute("class"); class != "" {
		for _, c := range strings.Fields(class) {
			switch c {
			case "completed":
				style = style.StrikeThrough(true).Dim(true)
			case "selected":
				style = style.Bold(true)
			}
		}
	}
	return style
}

// layout paints root into lines of cells, focus highlighted.
func layout(root, focus *dom.Element) [][]cell {
	p := &painter{focus: focus}
	p.children(root, tcell.StyleDefault)
	p.newline()
	return p.lines
}

// wrap splits lines wider than width columns. A width of zero or less
// leaves them alone.
func wrap(lines [][]cell, width int) [][]cell {
	if width <= 0 {
		return lines
	}
	var rows [][]cell
	for _, line := range lines {
		var row []cell
		x := 0
		for _, c := range line {
			w := runewidth.RuneWidth(c.r)
			if x+w > width && len(row) > 0 {
				rows = append(rows, row)
				row, x = nil, 0
			}
			row = append(row, c)
			x += w
		}
		rows = append(rows, row)
	}
	return rows
}

// Lines returns root as a View would paint it, without styles or focus,
// wrapped at width columns.
func Lines(root *dom.Element, width int) []string {
	rows := wrap(layout(root, nil), width)
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		out[i] = strings.TrimRight(b.String(), " ")
	}
	return out
}
