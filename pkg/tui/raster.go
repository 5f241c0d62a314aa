package tui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/ripple/pkg/dom"
)

const rasterPadding = 4

var (
	rasterInk    = color.Gray{Y: 0x10}
	rasterDimInk = color.Gray{Y: 0x90}
	rasterPaper  = color.White
)

// Rasterize draws root the way a View paints it onto an image, one
// 7x13 glyph cell per column. cols wraps long lines when positive.
func Rasterize(root *dom.Element, cols int) *image.RGBA {
	face := basicfont.Face7x13
	rows := wrap(layout(root, nil), cols)

	width := cols
	if width <= 0 {
		for _, row := range rows {
			width = max(width, rowWidth(row))
		}
	}
	img := image.NewRGBA(image.Rect(0, 0,
		width*face.Advance+2*rasterPadding,
		max(len(rows), 1)*face.Height+2*rasterPadding))
	draw.Draw(img, img.Bounds(), image.NewUniform(rasterPaper), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Face: face}
	for y, row := range rows {
		x := 0
		for _, c := range row {
			w := runewidth.RuneWidth(c.r)
			cellRect := image.Rect(
				rasterPadding+x*face.Advance, rasterPadding+y*face.Height,
				rasterPadding+(x+w)*face.Advance, rasterPadding+(y+1)*face.Height)
			drawCell(d, cellRect, c, face.Ascent)
			x += w
		}
	}
	return img
}

// WritePNG encodes Rasterize(root, cols) to w.
func WritePNG(w io.Writer, root *dom.Element, cols int) error {
	if err := png.Encode(w, Rasterize(root, cols)); err != nil {
		return fmt.Errorf("tui: encode png: %w", err)
	}
	return nil
}

func drawCell(d *font.Drawer, r image.Rectangle, c cell, ascent int) {
	_, _, attrs := c.style.Decompose()
	ink := color.Color(rasterInk)
	if attrs&tcell.AttrDim != 0 {
		ink = rasterDimInk
	}
	if attrs&tcell.AttrReverse != 0 {
		draw.Draw(d.Dst, r, image.NewUniform(ink), image.Point{}, draw.Src)
		ink = rasterPaper
	}
	d.Src = image.NewUniform(ink)
	d.Dot = fixed.P(r.Min.X, r.Min.Y+ascent)
	d.DrawString(string(c.r))
	if attrs&tcell.AttrBold != 0 {
		// Overstrike one pixel to the right.
		d.Dot = fixed.P(r.Min.X+1, r.Min.Y+ascent)
		d.DrawString(string(c.r))
	}
	if attrs&tcell.AttrStrikeThrough != 0 {
		mid := (r.Min.Y + r.Max.Y) / 2
		draw.Draw(d.Dst, image.Rect(r.Min.X, mid, r.Max.X, mid+1), d.Src, image.Point{}, draw.Src)
	}
}

func rowWidth(row []cell) int {
	w := 0
	for _, c := range row {
		w += runewidth.RuneWidth(c.r)
	}
	return w
}
