package editor

import (
	"math"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
)

// Handle names a resize grip by compass direction.
type Handle string

// The eight resize handles.
const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

// opKind is the pointer operation discriminator.
type opKind int

const (
	opIdle opKind = iota
	opDrag
	opResize
)

// pointerOp is the active gesture. Exactly one gesture runs at a time; the
// zero value is Idle.
type pointerOp struct {
	kind      opKind
	cardID    string
	handle    Handle
	startRect dashboard.GridRect
	startX    float64
	startY    float64
	started   bool // drag travel passed the start threshold
}

// Dragging reports whether a drag gesture is in progress.
func (e *Editor) Dragging() bool { return e.op.kind == opDrag }

// Resizing reports whether a resize gesture is in progress.
func (e *Editor) Resizing() bool { return e.op.kind == opResize }

// PointerDown begins a drag gesture on a card. No-op when the editor is
// disabled or the card has no draft.
func (e *Editor) PointerDown(cardID string, x, y float64) {
	if !e.enabled {
		return
	}
	rect, ok := e.drafts[cardID]
	if !ok {
		return
	}
	e.selected = cardID
	e.op = pointerOp{kind: opDrag, cardID: cardID, startRect: rect, startX: x, startY: y}
	e.collision = false
}

// ResizeDown begins a resize gesture from one of the eight handles. The
// caller must stop propagation so the same press does not also start a drag.
func (e *Editor) ResizeDown(cardID string, handle Handle, x, y float64) {
	if !e.enabled {
		return
	}
	rect, ok := e.drafts[cardID]
	if !ok {
		return
	}
	e.selected = cardID
	e.op = pointerOp{kind: opResize, cardID: cardID, handle: handle, startRect: rect, startX: x, startY: y}
	e.collision = false
}

// PointerMove advances the active gesture. Pixel deltas convert to grid
// units via the cell size; the result snaps to the half-unit grid. The
// collision flag is recomputed live but never blocks movement.
func (e *Editor) PointerMove(x, y float64) {
	if e.op.kind == opIdle {
		return
	}
	cell := e.metrics.cellSizePx()
	if cell <= 0 {
		return
	}
	dx := x - e.op.startX
	dy := y - e.op.startY

	var rect dashboard.GridRect
	switch e.op.kind {
	case opDrag:
		if !e.op.started {
			if math.Hypot(dx, dy) <= DragStartThresholdPx {
				return
			}
			e.op.started = true
		}
		rect = e.op.startRect
		rect.Col = dashboard.Snap(e.op.startRect.Col + dx/cell)
		rect.Row = dashboard.Snap(e.op.startRect.Row + dy/cell)
	case opResize:
		rect = resizeRect(e.op.startRect, e.op.handle, dx/cell, dy/cell)
	default:
		return
	}

	e.drafts[e.op.cardID] = rect
	e.validate(e.op.cardID, rect)
}

// PointerUp ends the gesture. A colliding rect reverts to the start rect
// (the whole gesture is rejected); a changed, valid rect pushes an undo
// entry and clears the redo stack.
func (e *Editor) PointerUp() {
	if e.op.kind == opIdle {
		return
	}
	op := e.op
	e.op = pointerOp{}

	current := e.drafts[op.cardID]
	if e.collision {
		e.drafts[op.cardID] = op.startRect
		e.collision = false
		return
	}
	if current != op.startRect {
		e.pushHistory(HistoryCmd{TabID: e.tabID, CardID: op.cardID, From: op.startRect, To: current})
	}
}

// PointerCancel aborts the gesture, always reverting to the start rect.
// No history entry is recorded.
func (e *Editor) PointerCancel() {
	if e.op.kind == opIdle {
		return
	}
	op := e.op
	e.op = pointerOp{}
	e.drafts[op.cardID] = op.startRect
	e.collision = false
}

// resizeRect applies a resize delta for one handle. East and south extend
// width/height directly; west and north shrink the dimension and shift the
// origin by exactly the shrink amount, keeping the opposite edge fixed.
// Dimensions never drop below half a unit.
func resizeRect(start dashboard.GridRect, handle Handle, dCol, dRow float64) dashboard.GridRect {
	rect := start
	switch handle {
	case HandleE, HandleNE, HandleSE:
		rect.W = math.Max(0.5, dashboard.Snap(start.W+dCol))
	case HandleW, HandleNW, HandleSW:
		w := math.Max(0.5, dashboard.Snap(start.W-dCol))
		rect.Col = start.Col + (start.W - w)
		rect.W = w
	}
	switch handle {
	case HandleS, HandleSE, HandleSW:
		rect.H = math.Max(0.5, dashboard.Snap(start.H+dRow))
	case HandleN, HandleNE, HandleNW:
		h := math.Max(0.5, dashboard.Snap(start.H-dRow))
		rect.Row = start.Row + (start.H - h)
		rect.H = h
	}
	return rect
}
