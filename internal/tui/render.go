package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada-remote/internal/edit"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

// listItem adapts a view.Row to bubbles/list.Item
type listItem struct {
	row view.Row
}

func (i listItem) FilterValue() string { return i.row.Text }

// Custom delegate to control how rows render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(it.row, index == m.Index(), m.Width()))
}

func renderRow(r view.Row, selected bool, width int) string {
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	if r.Completed {
		box = t.Success.Render(t.BoxChecked)
	}

	// prefix + box + spaces take about 6 cells
	textWidth := width - 6
	if textWidth < 10 {
		textWidth = 10
	}

	var text string
	switch {
	case r.Editing:
		text = t.Accent.Render("✎ " + ui.Truncate(view.Literal(r.Working), textWidth-2))
	case r.Completed:
		text = t.Done.Render(ui.Truncate(view.Literal(r.Text), textWidth))
	default:
		text = ui.Truncate(view.Literal(r.Text), textWidth)
	}

	prefix := "  "
	if selected {
		prefix = t.Selected.Render("> ")
	}
	return prefix + box + " " + text
}

// header is the list title with live counts.
func (m Model) header() string {
	t := ui.Current()
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), m.page.Completed,
		t.Pending.Render(t.SymPending), m.page.Pending(),
		t.Accent.Render("Total"), m.page.Total,
	)
}

func (m Model) View() string {
	t := ui.Current()
	w, h := m.width, m.height
	inputOpen := m.adding || m.edit.Phase() != edit.Viewing

	listHeight := h - 5
	if inputOpen {
		listHeight = h - 8
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(w-4, listHeight)

	var content string
	switch {
	case !m.loaded && m.page.Empty:
		content = m.header() + "\n\n" + t.Muted.Render("Loading...")
	case m.page.Empty:
		content = m.header() + "\n\n" + t.Muted.Render(view.EmptyText)
	default:
		content = m.list.View()
	}

	if inputOpen {
		content += "\n" + m.inputBar()
	}
	content += "\n" + m.statusLine()
	return panelString(content)
}

func (m Model) inputBar() string {
	t := ui.Current()
	bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)

	title := "Add todo"
	errText := m.addErr
	if s, ok := m.edit.Active(); ok {
		title = "Edit todo"
		if s.Phase == edit.Committing {
			title += " (saving...)"
		}
		for _, r := range m.page.Rows {
			if r.Editing {
				errText = r.EditErr
			}
		}
	}
	if errText != "" {
		title += " - " + t.Error.Render(errText)
	}
	help := t.Muted.Render("enter save · esc cancel")
	return bar.Render(title + "\n" + m.ti.View() + "\n" + help)
}

func (m Model) statusLine() string {
	t := ui.Current()
	var parts []string
	if m.pending > 0 {
		parts = append(parts, m.spinner.View())
	}
	switch {
	case m.errText != "":
		parts = append(parts, t.Error.Render("✖ "+m.errText))
	case m.status != "":
		parts = append(parts, t.Muted.Render(m.status))
	}
	parts = append(parts, t.Muted.Render(m.page.TotalLabel()+"  "+m.page.CompletedLabel()))
	return strings.Join(parts, "  ")
}

// helpers for View
func panelString(inner string) string {
	t := ui.Current()
	border := lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1)
	return border.Render(inner)
}
