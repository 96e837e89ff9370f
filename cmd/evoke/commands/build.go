package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/evoke/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every component of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, _ := cmd.Flags().GetInt("jobs")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			return c.app.Build(cmd.Context(), c.dir, app.BuildOptions{
				Jobs:    jobs,
				NoCache: noCache,
			})
		},
	}
	cmd.Flags().IntP("jobs", "j", 0, "Number of commands to run in parallel (default from config or CPU count)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the build cache and force execution")
	return cmd
}
