package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/dependency"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage tutoring sessions",
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create <student-id> [subject]",
	Short: "Create a new session",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		subject := ""
		if len(args) == 2 {
			subject = args[1]
		}
		c, err := wireContainer()
		if err != nil {
			return err
		}
		s, err := c.Sessions().Create(context.Background(), args[0], subject)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := wireContainer()
		if err != nil {
			return err
		}
		s, err := c.Sessions().Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := wireContainer()
		if err != nil {
			return err
		}
		if err := c.Sessions().Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	},
}

var sessionsCompressCmd = &cobra.Command{
	Use:   "compress <session-id>",
	Short: "Force compression of a session's older turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := wireContainer()
		if err != nil {
			return err
		}
		s, err := c.Sessions().Compress(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsCreateCmd)
	sessionsCmd.AddCommand(sessionsGetCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsCompressCmd)
}

func wireContainer() (*dependency.Container, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return dependency.New(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
