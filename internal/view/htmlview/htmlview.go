// Package htmlview draws a view.Page as an HTML DOM tree. Text is only ever
// placed in text nodes, so the serializer escapes it.
package htmlview

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Makepad-fr/tada-remote/internal/view"
)

// Render returns the todo list container followed by the stats block,
// wrapped in a single div.
func Render(p view.Page) *html.Node {
	root := element(atom.Div, "class", "todo-app")

	list := element(atom.Div, "id", "todoList", "class", "todo-list")
	if p.Empty {
		empty := element(atom.Div, "class", "empty-state")
		empty.AppendChild(text(view.EmptyText))
		list.AppendChild(empty)
	}
	for _, r := range p.Rows {
		list.AppendChild(row(r))
	}
	root.AppendChild(list)

	stats := element(atom.Div, "class", "stats")
	total := element(atom.Span, "id", "totalCount")
	total.AppendChild(text(p.TotalLabel()))
	done := element(atom.Span, "id", "completedCount")
	done.AppendChild(text(p.CompletedLabel()))
	stats.AppendChild(total)
	stats.AppendChild(done)
	root.AppendChild(stats)
	return root
}

func row(r view.Row) *html.Node {
	class := "todo-item"
	if r.Completed {
		class += " completed"
	}
	item := element(atom.Div, "class", class, "data-id", r.ID.String())

	box := element(atom.Input, "type", "checkbox", "class", "todo-checkbox")
	if r.Completed {
		box.Attr = append(box.Attr, html.Attribute{Key: "checked"})
	}
	item.AppendChild(box)

	if r.Editing {
		item.AppendChild(element(atom.Input, "type", "text", "class", "edit-input", "value", r.Working, "autofocus", ""))
	} else {
		span := element(atom.Span, "class", "todo-text")
		span.AppendChild(text(r.Text))
		item.AppendChild(span)
	}

	if r.Has(view.ControlEdit) {
		item.AppendChild(button("edit-btn", "Edit"))
	}
	if r.Has(view.ControlDelete) {
		item.AppendChild(button("delete-btn", "Delete"))
	}
	if r.Has(view.ControlSave) || r.Has(view.ControlCancel) {
		controls := element(atom.Span, "class", "edit-controls")
		controls.AppendChild(button("save-btn", "Save"))
		controls.AppendChild(button("cancel-btn", "Cancel"))
		item.AppendChild(controls)
	}
	if r.EditErr != "" {
		msg := element(atom.Span, "class", "edit-error", "role", "alert")
		msg.AppendChild(text(r.EditErr))
		item.AppendChild(msg)
	}
	return item
}

// WriteDocument serializes a complete HTML document for p to w.
func WriteDocument(w io.Writer, p view.Page) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element(atom.Html)
	head := element(atom.Head)
	meta := element(atom.Meta, "charset", "utf-8")
	title := element(atom.Title)
	title.AppendChild(text("Todos"))
	head.AppendChild(meta)
	head.AppendChild(title)
	body := element(atom.Body)
	body.AppendChild(Render(p))
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	doc.AppendChild(htmlEl)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func button(class, label string) *html.Node {
	b := element(atom.Button, "class", class)
	b.AppendChild(text(label))
	return b
}
