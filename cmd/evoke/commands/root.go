// Package commands implements the CLI commands for evoke.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/evoke/internal/app"
	"go.trai.ch/evoke/internal/build"
)

// CLI represents the command line interface for evoke.
type CLI struct {
	app       Application
	verbosity Verbosity
	rootCmd   *cobra.Command
	dir       string
	verbose   bool
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, root string, opts app.BuildOptions) error
	Graph(ctx context.Context, root string, w io.Writer) error
	Clean(ctx context.Context, root string) error
}

// Verbosity is implemented by loggers that can switch to debug output.
type Verbosity interface {
	SetVerbose(verbose bool)
}

// Option configures a CLI.
type Option func(*CLI)

// WithVerbosity lets the --verbose flag control v.
func WithVerbosity(v Verbosity) Option {
	return func(c *CLI) {
		c.verbosity = v
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "evoke",
		Short:         "A C and C++ build tool that infers dependencies from includes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Registered before the version flag so -v means --verbose.
	rootCmd.PersistentFlags().StringVarP(&c.dir, "dir", "C", ".", "Project root directory")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if c.verbosity != nil {
			c.verbosity.SetVerbose(c.verbose)
		}
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
