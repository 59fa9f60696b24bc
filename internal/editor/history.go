package editor

// pushHistory appends a command to the undo stack, dropping the oldest
// entry past MaxHistory, and clears the redo stack.
func (e *Editor) pushHistory(cmd HistoryCmd) {
	e.undo = append(e.undo, cmd)
	if len(e.undo) > MaxHistory {
		e.undo = e.undo[len(e.undo)-MaxHistory:]
	}
	e.redo = nil
}

// Undo reverts the most recent committed gesture, selects its card, and
// moves the command to the redo stack. No-op on an empty stack.
func (e *Editor) Undo() {
	if !e.enabled || len(e.undo) == 0 {
		return
	}
	cmd := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	if _, ok := e.drafts[cmd.CardID]; ok {
		e.drafts[cmd.CardID] = cmd.From
		e.selected = cmd.CardID
	}
	e.redo = append(e.redo, cmd)
}

// Redo re-applies the most recently undone gesture.
func (e *Editor) Redo() {
	if !e.enabled || len(e.redo) == 0 {
		return
	}
	cmd := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	if _, ok := e.drafts[cmd.CardID]; ok {
		e.drafts[cmd.CardID] = cmd.To
		e.selected = cmd.CardID
	}
	e.undo = append(e.undo, cmd)
}

// UndoDepth reports the undo stack size.
func (e *Editor) UndoDepth() int { return len(e.undo) }

// RedoDepth reports the redo stack size.
func (e *Editor) RedoDepth() int { return len(e.redo) }
