package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyai/studyai/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show studyai status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s studyai Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:   %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Server:   %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Model:    %s\n", cfg.Model.Name)

	keyMark := "(not set)"
	if cfg.OpenAI.APIKey != "" {
		keyMark = "✓"
	}
	fmt.Printf("API key:  %s\n", keyMark)

	backend := "in-memory"
	if cfg.Redis.Addr != "" {
		backend = "redis " + cfg.Redis.Addr
	}
	fmt.Printf("Store:    %s\n\n", backend)

	fmt.Println("Session budget:")
	fmt.Printf("  TTL:                  %dh\n", cfg.Session.TTLHours)
	fmt.Printf("  Context ceiling:      %d tokens\n", cfg.Session.MaxContextTokens)
	fmt.Printf("  Compression at:       %d tokens\n", cfg.Session.CompressionThreshold)
	fmt.Printf("  Retained tail:        %d messages\n", cfg.Session.KeepRecentMessages)
	return nil
}
