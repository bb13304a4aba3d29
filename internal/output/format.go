// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todoctl/internal/service"
)

// DueLayout is the layout for due dates in list output.
const DueLayout = "2006-01-02 15:04"

// FormatTodo formats a todo line for the list.
// Format: "{N:>4}  [x] {TITLE}[  (due {DATE})]\n", followed by the
// description indented under the title when present.
func FormatTodo(w io.Writer, num int, todo service.Todo, loc *time.Location) {
	mark := " "
	if todo.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("%4d  [%s] %s", num, mark, normalizeTitle(todo.Title))
	if todo.DueDate != nil {
		line += "  (due " + FormatDue(*todo.DueDate, loc) + ")"
	}
	fmt.Fprintln(w, line)

	if desc := normalizeDescription(todo.Description); desc != "" {
		fmt.Fprintf(w, "          %s\n", desc)
	}
}

// FormatTodos formats todos numbered from 1, or a hint when there are none.
func FormatTodos(w io.Writer, todos []service.Todo, loc *time.Location) {
	if len(todos) == 0 {
		fmt.Fprintln(w, "No todos yet. Add one with: todoctl add <title>")
		return
	}
	for i, t := range todos {
		FormatTodo(w, i+1, t, loc)
	}
}

// FormatDue renders a due date in loc, or UTC when loc is nil.
func FormatDue(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DueLayout)
}

// normalizeTitle normalizes a todo title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeDescription joins description lines into one line.
func normalizeDescription(desc string) string {
	return strings.Join(strings.Fields(desc), " ")
}
