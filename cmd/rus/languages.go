package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus/schema"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported language codes",
	Long: `List the supported language codes: the builtin languages plus the
languages added by configuration, which use the default schema.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		allow, err := schema.NewAllowList(cfg.Languages...)
		if err != nil {
			return err
		}
		for _, code := range allow.Codes() {
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
