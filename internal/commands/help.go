package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/todos"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todoctl help" }
func (c *HelpCmd) NeedsAPI() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, store *todos.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)

	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-20s %s\n", name, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  todoctl                                            List all todos
  todoctl list [common flags]
  todoctl add [common flags] [--desc <text>] <title...>
  todoctl edit [common flags] [--title <t>] [--desc <d>] [--due <time>] [--done[=false]] <ref>
  todoctl toggle [common flags] <ref>
  todoctl done [common flags] <ref>
  todoctl rm [common flags] [--force] <ref>
  todoctl ui [common flags]
  todoctl help
  todoctl version

A <ref> is the number shown by list, or a todo ID.
A <time> is RFC 3339 or 2006-01-02T15:04 in the local zone.

Common flags:
  --config <dir>     Override config directory
  --base-url <url>   Override the Todo API base URL
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
