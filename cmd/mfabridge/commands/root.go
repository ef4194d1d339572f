// Package commands implements the mfabridge command line.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	cfgFile string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mfabridge",
		Short: "Multi-factor login bridge",
		Long: `mfabridge accepts a username, a password and any number of extra
factors (one-time codes, tokens) from a login form and runs them through a
configured chain of authentication modules.

Use "mfabridge [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newChainsCmd())
	root.AddCommand(newVersionCmd())
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("mfabridge %s (commit: %s)\n", Version, Commit)
		},
	}
}
