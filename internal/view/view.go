// Package view projects client state into a declarative page model that
// presentation layers draw. Nothing here touches the network or a terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/tada-remote/internal/edit"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/state"
)

// EmptyText is shown in place of rows when there are no todos.
const EmptyText = "No todos yet. Add one above!"

// Control is an affordance offered on a row.
type Control string

const (
	ControlToggle Control = "toggle"
	ControlEdit   Control = "edit"
	ControlDelete Control = "delete"
	ControlSave   Control = "save"
	ControlCancel Control = "cancel"
)

var (
	viewingControls = []Control{ControlToggle, ControlEdit, ControlDelete}
	editingControls = []Control{ControlToggle, ControlSave, ControlCancel}
)

// Row is one todo as drawn.
type Row struct {
	ID        model.ID
	Text      string
	Completed bool

	// Editing rows show an input holding Working instead of Text.
	Editing bool
	Working string
	// EditErr is the message of the last failed or rejected commit.
	EditErr  string
	Controls []Control
}

func (r Row) Has(c Control) bool {
	for _, x := range r.Controls {
		if x == c {
			return true
		}
	}
	return false
}

// Page is the whole list plus its aggregates.
type Page struct {
	Rows      []Row
	Empty     bool
	Total     int
	Completed int
}

func (p Page) TotalLabel() string     { return fmt.Sprintf("Total: %d", p.Total) }
func (p Page) CompletedLabel() string { return fmt.Sprintf("Completed: %d", p.Completed) }

// Pending is Total minus Completed.
func (p Page) Pending() int { return p.Total - p.Completed }

// Build renders st in its own order. session is the active edit, if any; a
// session whose id is no longer in st is ignored.
func Build(st state.State, session *edit.Session) Page {
	todos := st.Todos()
	p := Page{
		Rows:  make([]Row, 0, len(todos)),
		Empty: len(todos) == 0,
		Total: len(todos),
	}
	for _, t := range todos {
		if t.Completed {
			p.Completed++
		}
		r := Row{ID: t.ID, Text: t.Text, Completed: t.Completed, Controls: viewingControls}
		if session != nil && session.ID == t.ID && session.Phase != edit.Viewing && session.Phase != edit.Cancelled {
			r.Editing = true
			r.Working = session.Working
			r.Controls = editingControls
			if session.Err != nil {
				r.EditErr = remote.UserMessage(remote.OpEdit, session.Err)
			}
		}
		p.Rows = append(p.Rows, r)
	}
	return p
}

// Literal makes s safe to print on a terminal: control characters are shown
// as their Unicode control pictures so every character stays visible and
// nothing is interpreted as an escape sequence.
func Literal(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20:
			b.WriteRune(0x2400 + r)
		case r == 0x7f:
			b.WriteRune('␡')
		case r >= 0x80 && r < 0xa0:
			fmt.Fprintf(&b, "\\u%04x", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r < 0xa0)
}
