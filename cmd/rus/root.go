package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/internal/logging"
	"github.com/brunobiangulo/gorus/relations"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded before any subcommand runs.
	cfg gorus.Config
)

var rootCmd = &cobra.Command{
	Use:   "rus",
	Short: "rus - relation trees for natural language requests",
	Long: `rus builds Retrieval-Union Semantics relation trees: given a text, its
language and the entity mentions in it, it tells which entities are wanted
together, which are excluded and which qualify another entity.

Configuration is read from --config, a .env file in the working directory
and GORUS_* environment variables, in increasing precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func setup(cmd *cobra.Command, _ []string) error {
	logger, err := logging.New(logFormat, logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg = gorus.DefaultConfig()
	if configPath != "" {
		if cfg, err = gorus.LoadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.ApplyEnv()
	return nil
}

// newEngine creates an engine from the loaded config, with patterns
// overriding the configured pattern file when set.
func newEngine(patterns string) (gorus.Engine, error) {
	c := cfg
	if patterns != "" {
		c.Patterns = patterns
	}
	return gorus.New(c)
}

// printTree writes a relation tree as indented JSON or as an outline.
func printTree(w io.Writer, tree relations.Node, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "tree":
		relations.Render(w, tree)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
