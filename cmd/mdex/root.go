package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mdex",
	Short: "Search and download manga from MangaDex",
	Long:  "Search the MangaDex catalog, keep a local library and download chapter pages",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("language", "l", "en", "Preferred translation language code (e.g. en, ja, es)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
