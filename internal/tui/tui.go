// Package tui is the interactive todo list.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoctl/internal/output"
	"todoctl/internal/schema"
	"todoctl/internal/service"
	"todoctl/internal/todos"
)

// Run starts the program on in and out until the user quits or ctx ends.
func Run(ctx context.Context, store *todos.Store, in io.Reader, out io.Writer) error {
	q := store.Query(ctx)
	defer q.Close()

	p := tea.NewProgram(newModel(ctx, store, q),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
)

// stateMsg carries a new query state.
type stateMsg todos.State

// mutationMsg reports a finished mutation. done is the status text on success.
type mutationMsg struct {
	done string
	err  error
}

type model struct {
	ctx   context.Context
	store *todos.Store
	query *todos.Query

	state  todos.State
	cursor int
	mode   mode
	target service.Todo // todo being edited or deleted

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	status    string
	statusErr bool
}

func newModel(ctx context.Context, store *todos.Store, q *todos.Query) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:     ctx,
		store:   store,
		query:   q,
		state:   q.Snapshot(),
		input:   ti,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
}

// waitForState reads the next query state. It returns nil once the query
// is closed.
func waitForState(q *todos.Query) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-q.Updates()
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.query), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = todos.State(msg)
		m.clampCursor()
		return m, waitForState(m.query)

	case mutationMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.done)
		}
		return m, nil

	case tea.FocusMsg:
		store, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			store.Focus(ctx)
			return nil
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateInput(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		q, ctx := m.query, m.ctx
		return m, func() tea.Msg {
			// The error shows up in the next state.
			_ = q.Refetch(ctx)
			return nil
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = "New todo title..."
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggle(todo)
	case key.Matches(msg, m.keys.Edit):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEdit
		m.target = todo
		m.input.SetValue(todo.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Title..."
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Delete):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.target = todo
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveInput()
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		var cmd tea.Cmd
		if m.mode == modeAdd {
			in := service.CreateTodo{Title: title}
			if err := schema.ValidateCreate(in); err != nil {
				m.setError(err)
				return m, nil
			}
			cmd = m.create(in)
		} else {
			in := service.UpdateTodo{Title: &title}
			if err := schema.ValidateUpdate(in); err != nil {
				m.setError(err)
				return m, nil
			}
			cmd = m.update(m.target.ID, in)
		}
		m.leaveInput()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.mode = modeList
		return m, m.delete(m.target)
	case "n", "esc":
		m.mode = modeList
		m.setStatus("cancelled")
	}
	return m, nil
}

func (m *model) leaveInput() {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m *model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *model) setError(err error) {
	m.status, m.statusErr = "error: "+err.Error(), true
}

func (m model) selected() (service.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Todos) {
		return service.Todo{}, false
	}
	return m.state.Todos[m.cursor], true
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.state.Todos) {
		m.cursor = len(m.state.Todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) create(in service.CreateTodo) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		_, err := store.CreateTodo(ctx, in)
		return mutationMsg{done: "added", err: err}
	}
}

func (m model) update(id string, in service.UpdateTodo) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		_, err := store.UpdateTodo(ctx, id, in)
		return mutationMsg{done: "updated", err: err}
	}
}

func (m model) toggle(todo service.Todo) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		updated, err := store.ToggleTodoComplete(ctx, todo)
		if err != nil {
			return mutationMsg{err: err}
		}
		if updated.Completed {
			return mutationMsg{done: "marked done"}
		}
		return mutationMsg{done: "marked open"}
	}
}

func (m model) delete(todo service.Todo) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return mutationMsg{done: "deleted", err: store.DeleteTodo(ctx, todo.ID)}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch {
	case m.state.IsLoading:
		fmt.Fprintf(&b, "%s Loading...\n", m.spinner.View())
	case len(m.state.Todos) == 0 && m.state.Err == nil:
		b.WriteString(mutedStyle.Render("No todos yet. Press a to add one."))
		b.WriteString("\n")
	}

	if m.state.Err != nil {
		b.WriteString(errorStyle.Render("error: " + m.state.Err.Error()))
		b.WriteString("\n")
	}

	for i, t := range m.state.Todos {
		b.WriteString(m.row(i, t))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeAdd, modeEdit:
		label := "Add todo"
		if m.mode == modeEdit {
			label = "Edit title"
		}
		b.WriteString("\n")
		b.WriteString(inputBoxStyle.Render(label + "\n" + m.input.View()))
		b.WriteString("\n")
	case modeConfirmDelete:
		fmt.Fprintf(&b, "\nDelete %q? [y/N]\n", m.target.Title)
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) header() string {
	done, open := 0, 0
	for _, t := range m.state.Todos {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), open,
		accentStyle.Render("Total"), len(m.state.Todos),
	)
}

func (m model) row(i int, t service.Todo) string {
	box, title := mutedStyle.Render(boxUnchecked), t.Title
	if t.Completed {
		box, title = successStyle.Render(boxChecked), doneStyle.Render(t.Title)
	}

	line := box + " " + title
	if t.DueDate != nil {
		line += mutedStyle.Render("  due " + output.FormatDue(*t.DueDate, time.Local))
	}

	if i == m.cursor {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}
