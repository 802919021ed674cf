package commands

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ErrUsage marks bad command lines: unknown command, bad flags or stray arguments.
var ErrUsage = errors.New("usage error")

// Command is a subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse and can read flag state.
type Command struct {
	Name    string
	Summary string
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
type Registry struct {
	cmds map[string]*Command
	// Default runs when the command line is empty or starts with a flag.
	Default string
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// Register adds a subcommand. fs is that command's FlagSet, which should use
// flag.ContinueOnError; run is called after fs.Parse(args[1:]) succeeds.
func (r *Registry) Register(name, summary string, fs *flag.FlagSet, run func() error) {
	r.cmds[name] = &Command{Name: name, Summary: summary, FlagSet: fs, Run: run}
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Usage writes one line per command.
func (r *Registry) Usage(w io.Writer, program string) {
	fmt.Fprintf(w, "usage: %s <command> [flags]\n\ncommands:\n", program)
	for _, name := range r.Names() {
		mark := ""
		if name == r.Default {
			mark = " (default)"
		}
		fmt.Fprintf(w, "  %-8s %s%s\n", name, r.cmds[name].Summary, mark)
	}
}

// Execute runs the subcommand in args[0] with args[1:] as flag arguments. Unknown commands,
// flag errors and leftover positional arguments wrap ErrUsage; -h returns flag.ErrHelp.
func (r *Registry) Execute(args []string) error {
	if (len(args) == 0 || strings.HasPrefix(args[0], "-")) && r.Default != "" {
		args = append([]string{r.Default}, args...)
	}
	if len(args) == 0 {
		return errors.Wrap(ErrUsage, "missing subcommand")
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return errors.Wrapf(ErrUsage, "unknown command: %s", name)
	}
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errors.Wrapf(ErrUsage, "%s: %v", name, err)
	}
	if rest := cmd.FlagSet.Args(); len(rest) > 0 {
		return errors.Wrapf(ErrUsage, "%s: unexpected arguments %q", name, rest)
	}
	return cmd.Run()
}
