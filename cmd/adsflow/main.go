package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/prettylog"
)

var rootCmd = &cobra.Command{
	Use:   "adsflow",
	Short: "TikTok Ads creative flow backend",
}

func main() {
	if os.Getenv("PRETTY_LOGS") != "false" {
		logger := slog.New(prettylog.NewHandler(slog.LevelDebug))
		slog.SetDefault(logger)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
