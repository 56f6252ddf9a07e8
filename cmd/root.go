// Package cmd implements the studyai CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "📚"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "studyai",
	Short: logo + " studyai — AI tutoring backend",
	Long:  logo + " studyai — conversational tutoring backend with token-budgeted session memory",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
}
