package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/schema"
	"todoctl/internal/service"
	"todoctl/internal/todos"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.description = desc
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a todo" }
func (c *AddCmd) Usage() string     { return "todoctl add [--desc <text>] <title...>" }
func (c *AddCmd) NeedsAPI() bool    { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	in := service.CreateTodo{
		Title:       strings.TrimSpace(strings.Join(args, " ")),
		Description: strings.TrimSpace(c.description),
	}
	if err := schema.ValidateCreate(in); err != nil {
		return report(errOut, err)
	}

	todo, err := store.CreateTodo(ctx, in)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", todo.ID)
	}
	return exitcode.Success
}
