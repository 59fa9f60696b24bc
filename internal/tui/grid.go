package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
	"github.com/Dicklesworthstone/homedeck/internal/view"
)

// gridGeometry maps grid units to terminal cells for the visible grid area.
type gridGeometry struct {
	originX int // terminal column of grid unit (0,0)
	originY int // terminal row of grid unit (0,0)
	cellW   int // terminal columns per grid unit
	cellH   int // terminal rows per grid unit
	cols    int
	rows    int
}

func newGeometry(width, height, originY, cols, rows int) gridGeometry {
	g := gridGeometry{originX: 0, originY: originY, cols: cols, rows: rows}
	if cols > 0 {
		g.cellW = width / cols
	}
	if rows > 0 {
		g.cellH = height / rows
	}
	if g.cellW < 4 {
		g.cellW = 4
	}
	if g.cellH < 2 {
		g.cellH = 2
	}
	return g
}

// unitPx is the editor-space size of one grid unit. Terminal coordinates
// normalize into this space on both axes so one pixel scale serves the
// editor regardless of the terminal's cell aspect ratio.
const unitPx = 20.0

// toEditorSpace converts a terminal mouse position to editor pixel space.
func (g gridGeometry) toEditorSpace(termX, termY int) (x, y float64) {
	x = float64(termX-g.originX) * unitPx / float64(g.cellW)
	y = float64(termY-g.originY) * unitPx / float64(g.cellH)
	return x, y
}

// rectToTerm converts a grid rect to terminal cell bounds.
func (g gridGeometry) rectToTerm(r dashboard.GridRect) (x, y, w, h int) {
	x = g.originX + int(math.Round(r.Col*float64(g.cellW)))
	y = g.originY + int(math.Round(r.Row*float64(g.cellH)))
	w = int(math.Round(r.W * float64(g.cellW)))
	h = int(math.Round(r.H * float64(g.cellH)))
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return x, y, w, h
}

// canvas is a terminal cell buffer with per-cell card ownership, so the
// final render can style each card's region independently after overlapping
// draws resolve.
type canvas struct {
	w, h  int
	cells [][]rune
	owner [][]int // index into the card slice, -1 for background
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h}
	c.cells = make([][]rune, h)
	c.owner = make([][]int, h)
	for y := 0; y < h; y++ {
		c.cells[y] = make([]rune, w)
		c.owner[y] = make([]int, w)
		for x := 0; x < w; x++ {
			c.cells[y][x] = ' '
			c.owner[y][x] = -1
		}
	}
	return c
}

func (c *canvas) set(x, y int, ch rune, owner int) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = ch
	c.owner[y][x] = owner
}

// drawBox draws a bordered box and claims its region for owner.
func (c *canvas) drawBox(x, y, w, h, owner int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			ch := ' '
			switch {
			case dy == 0 && dx == 0:
				ch = '┌'
			case dy == 0 && dx == w-1:
				ch = '┐'
			case dy == h-1 && dx == 0:
				ch = '└'
			case dy == h-1 && dx == w-1:
				ch = '┘'
			case dy == 0 || dy == h-1:
				ch = '─'
			case dx == 0 || dx == w-1:
				ch = '│'
			}
			c.set(x+dx, y+dy, ch, owner)
		}
	}
}

// drawText writes a single line clipped to maxW, claiming cells for owner.
func (c *canvas) drawText(x, y, maxW, owner int, text string) {
	if maxW <= 0 {
		return
	}
	text = runewidth.Truncate(text, maxW, "…")
	col := x
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if col+rw > x+maxW {
			break
		}
		c.set(col, y, r, owner)
		// Wide runes occupy two cells; blank the second so stale
		// content never shows through.
		for i := 1; i < rw; i++ {
			c.set(col+i, y, ' ', owner)
		}
		col += rw
	}
}

// render emits the canvas as styled lines. Contiguous runs of cells with
// the same owner share one style application.
func (c *canvas) render(styleFor func(owner int) lipgloss.Style) string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		x := 0
		for x < c.w {
			owner := c.owner[y][x]
			start := x
			for x < c.w && c.owner[y][x] == owner {
				x++
			}
			run := string(c.cells[y][start:x])
			if owner < 0 {
				b.WriteString(run)
			} else {
				b.WriteString(styleFor(owner).Render(run))
			}
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// cardAt returns the topmost card whose rect contains the terminal cell,
// scanning back to front so later-drawn cards win.
func cardAt(cards []view.Card, g gridGeometry, termX, termY int) (view.Card, bool) {
	for i := len(cards) - 1; i >= 0; i-- {
		x, y, w, h := g.rectToTerm(cards[i].Position)
		if termX >= x && termX < x+w && termY >= y && termY < y+h {
			return cards[i], true
		}
	}
	return view.Card{}, false
}

// handleAt maps a terminal cell on a card to a resize handle when it sits
// on a corner or edge midpoint of the card's border.
func handleAt(card view.Card, g gridGeometry, termX, termY int) (string, bool) {
	x, y, w, h := g.rectToTerm(card.Position)
	onLeft := termX == x
	onRight := termX == x+w-1
	onTop := termY == y
	onBottom := termY == y+h-1

	switch {
	case onTop && onLeft:
		return "nw", true
	case onTop && onRight:
		return "ne", true
	case onBottom && onLeft:
		return "sw", true
	case onBottom && onRight:
		return "se", true
	case onTop:
		return "n", true
	case onBottom:
		return "s", true
	case onLeft:
		return "w", true
	case onRight:
		return "e", true
	}
	return "", false
}
