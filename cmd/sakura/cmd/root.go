package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	// Global flags
	verbose bool
	workDir string
)

var rootCmd = &cobra.Command{
	Use:   "sakura",
	Short: "SakuraTree - declarative task-tree automation",
	Long: `SakuraTree executes declarative task trees against local or remote
hosts. A tree combines atomic blossoms (shell commands, file tasks,
package installs) with control-flow items (sequential, parallel,
conditionals, loops, subtree calls) and a namespace of values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "working directory (default: current)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("sakura {{.Version}}\n")
}

// getWorkDir returns the effective working directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}
