package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/todos"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string  { return "Mark a todo done, or open again" }
func (c *ToggleCmd) Usage() string     { return "todoctl toggle <ref>" }
func (c *ToggleCmd) NeedsAPI() bool    { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	todo, code, ok := parseRefArg(ctx, store, args, errOut)
	if !ok {
		return code
	}

	updated, err := store.ToggleTodoComplete(ctx, todo)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		state := "open"
		if updated.Completed {
			state = "done"
		}
		fmt.Fprintf(out, "ok %s\n", state)
	}
	return exitcode.Success
}
