package commands

import (
	"context"
	"flag"
	"io"
	"os"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/todos"
	"todoctl/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd implements the ui command.
type UICmd struct {
	in io.Reader
}

// SetInput sets the terminal input (for testing).
func (c *UICmd) SetInput(in io.Reader) {
	c.in = in
}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive todo list" }
func (c *UICmd) Usage() string     { return "todoctl ui" }
func (c *UICmd) NeedsAPI() bool    { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return report(errOut, refErrorf("unexpected argument: %s", args[0]))
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	if err := tui.Run(ctx, store, in, out); err != nil {
		return report(errOut, err)
	}
	return exitcode.Success
}
