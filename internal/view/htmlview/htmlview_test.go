package htmlview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/Makepad-fr/tada-remote/internal/edit"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/state"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

func render(t *testing.T, p view.Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, Render(p)))
	return buf.String()
}

func TestRender_Empty(t *testing.T) {
	out := render(t, view.Build(state.State{}, nil))
	assert.Contains(t, out, `<div class="empty-state">No todos yet. Add one above!</div>`)
	assert.Contains(t, out, `<span id="totalCount">Total: 0</span>`)
	assert.Contains(t, out, `<span id="completedCount">Completed: 0</span>`)
	assert.NotContains(t, out, "todo-item")
}

func TestRender_EscapesMarkup(t *testing.T) {
	st := state.New([]model.Todo{{ID: "1", Text: `<b>x</b> & "q"`, Completed: true}})
	out := render(t, view.Build(st, nil))

	assert.NotContains(t, out, "<b>x</b>")
	assert.Contains(t, out, `<span class="todo-text">&lt;b&gt;x&lt;/b&gt; &amp; &#34;q&#34;</span>`)
	assert.Contains(t, out, `class="todo-item completed" data-id="1"`)
	assert.Contains(t, out, `<input type="checkbox" class="todo-checkbox" checked=""/>`)

	// parsing it back yields the literal text, not an element
	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, `<b>x</b> & "q"`, findText(doc, "todo-text"))
}

func TestRender_EditingRow(t *testing.T) {
	st := state.New([]model.Todo{{ID: "1", Text: "a"}})
	s := edit.Session{ID: "1", Working: `<i>y</i>`, Phase: edit.Editing}
	out := render(t, view.Build(st, &s))

	assert.Contains(t, out, `class="edit-input" value="&lt;i&gt;y&lt;/i&gt;"`)
	assert.Contains(t, out, `<span class="edit-controls"><button class="save-btn">Save</button><button class="cancel-btn">Cancel</button></span>`)
	assert.NotContains(t, out, "edit-btn")
	assert.NotContains(t, out, "delete-btn")
	assert.NotContains(t, out, "todo-text")
}

func TestWriteDocument(t *testing.T) {
	var buf bytes.Buffer
	st := state.New([]model.Todo{{ID: "1", Text: "a"}, {ID: "2", Text: "b", Completed: true}})
	require.NoError(t, WriteDocument(&buf, view.Build(st, nil)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"/>"))
	assert.Contains(t, out, "Total: 2")
	assert.Contains(t, out, "Completed: 1")
	assert.Equal(t, 2, strings.Count(out, `class="delete-btn"`))
}

func findText(n *html.Node, class string) string {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == class && n.FirstChild != nil {
				return n.FirstChild.Data
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := findText(c, class); s != "" {
			return s
		}
	}
	return ""
}
