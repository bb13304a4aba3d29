package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/output"
	"todoctl/internal/todos"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todoctl` (no args) and `todoctl list`.
type ListCmd struct {
	loc *time.Location
}

// SetLocation sets the zone due dates are shown in (for testing).
func (c *ListCmd) SetLocation(loc *time.Location) {
	c.loc = loc
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List todos" }
func (c *ListCmd) Usage() string     { return "todoctl list" }
func (c *ListCmd) NeedsAPI() bool    { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return report(errOut, refErrorf("unexpected argument: %s", args[0]))
	}

	list, err := store.List(ctx)
	if err != nil {
		return report(errOut, err)
	}

	if len(list) == 0 && cfg.Quiet {
		return exitcode.Success
	}

	loc := c.loc
	if loc == nil {
		loc = time.Local
	}
	output.FormatTodos(out, list, loc)
	return exitcode.Success
}
