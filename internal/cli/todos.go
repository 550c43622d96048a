package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/state"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
	"github.com/Makepad-fr/tada-remote/internal/view/htmlview"
)

func (a *app) lsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos",
		Long: `List every todo on the server in server order.

Examples:
  todo ls
  todo ls --group
  todo ls --html > todos.html`,
		Args: usageArgs(cobra.NoArgs),
		RunE: a.runList,
	}
	cmd.Flags().Bool("group", false, "group output by pending/done")
	cmd.Flags().Bool("html", false, "write an HTML document instead of a panel")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	group, _ := cmd.Flags().GetBool("group")
	asHTML, _ := cmd.Flags().GetBool("html")

	s, err := a.sync()
	if err != nil {
		return err
	}
	st, _, err := state.Do(state.State{}, func() (state.Result, error) {
		return s.FetchAll(cmd.Context())
	})
	if err != nil {
		return failure(remote.OpList, err)
	}
	page := view.Build(st, nil)

	if asHTML {
		return htmlview.WriteDocument(cmd.OutOrStdout(), page)
	}
	ui.Panel(listLines(page, group))
	return nil
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo",
		Long: `Add a todo. The words are joined with spaces.

Examples:
  todo add "Buy milk"
  todo add Walk the dog`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sync()
			if err != nil {
				return err
			}
			res, err := s.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return failure(remote.OpCreate, err)
			}
			ui.OK(fmt.Sprintf("added #%s", res.Todo.ID))
			return nil
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between done and pending",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.sync()
			if err != nil {
				return err
			}
			res, err := s.Toggle(cmd.Context(), id)
			if err != nil {
				return failure(remote.OpToggle, err)
			}
			if res.Todo.Completed {
				ui.OK(fmt.Sprintf("#%s done", id))
			} else {
				ui.OK(fmt.Sprintf("#%s pending", id))
			}
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace a todo's text",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.sync()
			if err != nil {
				return err
			}
			if _, err := s.UpdateText(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
				return failure(remote.OpEdit, err)
			}
			ui.OK(fmt.Sprintf("#%s saved", id))
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.sync()
			if err != nil {
				return err
			}
			if _, err := s.Remove(cmd.Context(), id); err != nil {
				return failure(remote.OpDelete, err)
			}
			ui.OK(fmt.Sprintf("removed #%s", id))
			return nil
		},
	}
}

func parseID(s string) (model.ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", usageErrorf("empty id")
	}
	return model.ID(s), nil
}

// failure turns an operation error into the line shown to the user. Empty
// text is a usage error; anything else keeps the detail after the generic
// message.
func failure(op remote.Op, err error) error {
	msg := remote.UserMessage(op, err)
	if errors.Is(err, remote.ErrEmptyText) {
		return &UsageError{Err: errors.New(msg)}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// -------------- rendering helpers --------------

func listLines(p view.Page, group bool) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), p.Completed,
		t.Pending.Render(t.SymPending), p.Pending(),
		t.Accent.Render("Total"), p.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(p.Completed, p.Total, 28)))
	lines = append(lines, "")

	switch {
	case p.Empty:
		lines = append(lines, t.Muted.Render(view.EmptyText))
	case group:
		lines = append(lines, groupLines(p.Rows)...)
	default:
		lines = append(lines, rowLines(p.Rows)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render(p.TotalLabel()+"  "+p.CompletedLabel()))
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

func rowLines(rows []view.Row) []string {
	t := ui.Current()
	idw := 0
	for _, r := range rows {
		if n := len(view.Literal(r.ID.String())); n > idw {
			idw = n
		}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		id := fmt.Sprintf("#%-*s", idw, view.Literal(r.ID.String()))
		box := t.Muted.Render(t.BoxUnchecked)
		text := ui.Truncate(view.Literal(r.Text), 80)
		if r.Completed {
			box = t.Success.Render(t.BoxChecked)
			text = t.Done.Render(text)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(id), box, text))
	}
	return out
}

func groupLines(rows []view.Row) []string {
	var pend, done []view.Row
	for _, r := range rows {
		if r.Completed {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	t := ui.Current()
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, rowLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, rowLines(done)...)
	}
	return lines
}
