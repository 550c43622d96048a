// Package edit implements the inline edit session: one row at a time swaps
// its text for an input, then commits or cancels.
package edit

import (
	"errors"
	"strings"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
)

// Phase of the controller. Viewing means no session is active.
type Phase int

const (
	Viewing Phase = iota
	Editing
	Committing
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	case Cancelled:
		return "cancelled"
	}
	return "viewing"
}

var (
	// ErrSessionActive rejects a second Begin while a row is being edited.
	ErrSessionActive = errors.New("another todo is being edited")
	// ErrNoSession is returned by transitions that need an active session.
	ErrNoSession = errors.New("no edit in progress")
)

// Session is the working copy of one row's text.
type Session struct {
	ID       model.ID
	Original string
	Working  string
	Phase    Phase
	// Err is the last commit failure, kept while the stale input stays shown.
	Err error
}

// Controller owns the single current session, or none.
type Controller struct {
	current *Session
}

// Active returns the current session and whether there is one.
func (c *Controller) Active() (Session, bool) {
	if c.current == nil {
		return Session{}, false
	}
	return *c.current, true
}

// Phase is Viewing when no session exists.
func (c *Controller) Phase() Phase {
	if c.current == nil {
		return Viewing
	}
	return c.current.Phase
}

// Editing reports whether id is the row under edit.
func (c *Controller) Editing(id model.ID) bool {
	return c.current != nil && c.current.ID == id
}

// Begin moves Viewing -> Editing for id with text as the working value.
func (c *Controller) Begin(id model.ID, text string) error {
	if c.current != nil {
		return ErrSessionActive
	}
	c.current = &Session{ID: id, Original: text, Working: text, Phase: Editing}
	return nil
}

func (c *Controller) SetWorking(text string) {
	if c.current != nil && c.current.Phase == Editing {
		c.current.Working = text
	}
}

// Commit moves Editing -> Committing and returns the trimmed text to send.
// Blank text returns remote.ErrEmptyText and the session stays Editing.
func (c *Controller) Commit() (model.ID, string, error) {
	if c.current == nil || c.current.Phase != Editing {
		return "", "", ErrNoSession
	}
	text := strings.TrimSpace(c.current.Working)
	if text == "" {
		c.current.Err = remote.ErrEmptyText
		return c.current.ID, "", remote.ErrEmptyText
	}
	c.current.Phase = Committing
	c.current.Err = nil
	return c.current.ID, text, nil
}

// Succeeded ends a committing session; the row returns to Viewing on the
// next full redraw.
func (c *Controller) Succeeded() {
	if c.current != nil && c.current.Phase == Committing {
		c.current = nil
	}
}

// Failed moves Committing back to Editing. The stale working value stays in
// the input; nothing is rolled back.
func (c *Controller) Failed(err error) {
	if c.current != nil && c.current.Phase == Committing {
		c.current.Phase = Editing
		c.current.Err = err
	}
}

// Cancel discards the working value and returns to Viewing. The discarded
// session is returned in the Cancelled phase. A session that is already
// committing cannot be cancelled.
func (c *Controller) Cancel() (Session, error) {
	if c.current == nil {
		return Session{}, ErrNoSession
	}
	if c.current.Phase == Committing {
		return Session{}, ErrSessionActive
	}
	s := *c.current
	s.Phase = Cancelled
	c.current = nil
	return s, nil
}

// Drop ends any session regardless of phase, for when its row disappears.
func (c *Controller) Drop() { c.current = nil }
