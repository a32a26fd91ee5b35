package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus/store"
)

var purgeOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the parse cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show parse cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := store.New(cfg.CachePath())
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.Stats(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old parses from the cache",
	Long: `Delete parses stored longer ago than --older-than.

Examples:
  rus cache purge --older-than 720h
  rus cache purge --older-than 0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if purgeOlderThan < 0 {
			return fmt.Errorf("--older-than must not be negative")
		}
		s, err := store.New(cfg.CachePath())
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Purge(cmd.Context(), time.Now().Add(-purgeOlderThan))
		if err != nil {
			return err
		}
		slog.Info("cache purged", "path", cfg.CachePath(), "removed", n)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d parses\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 30*24*time.Hour, "Minimum age of purged parses")
	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
