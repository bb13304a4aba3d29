package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/schema"
	"todoctl/internal/service"
	"todoctl/internal/todos"
)

func init() {
	Register(&EditCmd{})
}

// Due date layouts accepted by --due, tried in order. The second is the
// browser datetime-local form, read in the local zone.
var dueLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// EditCmd implements the edit command.
// Only flags given on the command line are sent.
type EditCmd struct {
	title       optString
	description optString
	due         optString
	done        optBool
	loc         *time.Location
}

// SetLocation sets the zone for due dates without an offset (for testing).
func (c *EditCmd) SetLocation(loc *time.Location) {
	c.loc = loc
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a todo" }
func (c *EditCmd) Usage() string {
	return "todoctl edit [--title <t>] [--desc <d>] [--due <time>] [--done[=false]] <ref>"
}
func (c *EditCmd) NeedsAPI() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description, c.due, c.done = optString{}, optString{}, optString{}, optBool{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "desc", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.done, "done", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	in, err := c.update()
	if err != nil {
		return report(errOut, err)
	}
	if err := schema.ValidateUpdate(in); err != nil {
		return report(errOut, err)
	}

	todo, code, ok := parseRefArg(ctx, store, args, errOut)
	if !ok {
		return code
	}

	if _, err := store.UpdateTodo(ctx, todo.ID, in); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// update builds the request from the flags that were set.
func (c *EditCmd) update() (service.UpdateTodo, error) {
	var in service.UpdateTodo
	if c.title.set {
		title := strings.TrimSpace(c.title.value)
		in.Title = &title
	}
	if c.description.set {
		desc := strings.TrimSpace(c.description.value)
		in.Description = &desc
	}
	if c.due.set {
		loc := c.loc
		if loc == nil {
			loc = time.Local
		}
		due, err := ParseDue(c.due.value, loc)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	if c.done.set {
		done := c.done.value
		in.Completed = &done
	}
	return in, nil
}

// ParseDue parses a due date in one of the accepted layouts. Times without
// an offset are read in loc.
func ParseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &schema.ValidationError{Field: "dueDate", Message: "must not be empty"}
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &schema.ValidationError{
		Field:   "dueDate",
		Message: fmt.Sprintf("invalid time %q (use RFC 3339 or 2006-01-02T15:04)", s),
	}
}

// optString is a string flag that records whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// optBool is a bool flag that records whether it was given.
type optBool struct {
	value bool
	set   bool
}

func (o *optBool) String() string { return strconv.FormatBool(o.value) }

func (o *optBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	o.value, o.set = v, true
	return nil
}

func (o *optBool) IsBoolFlag() bool { return true }
