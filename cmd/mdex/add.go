package cmd

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mdex/pkg/services"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [manga-name]",
	Short: "Add a manga to your library",
	Long:  "Search for a manga and add it to your library (downloads metadata only)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		language, _ := cmd.Flags().GetString("language")

		controller := services.NewController(services.ControllerConfig{Language: language})
		defer controller.Close()

		fmt.Printf("Searching for %q...\n", query)

		manga, err := controller.FindByTitle(query)
		if err != nil {
			cobra.CheckErr(err)
		}
		if manga == nil {
			// No exact match; fall back to the first result.
			results, err := controller.Source().Search(query, nil)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("search failed: %w", err))
			}
			if len(results) == 0 {
				fmt.Println("No results found.")
				return
			}
			manga = &results[0]
		}

		fmt.Printf("Found: %s (ID: %s)\n", manga.Name, manga.ID)

		count, err := controller.AddMangaToLibrary(manga)
		if err != nil {
			cobra.CheckErr(err)
		}

		fmt.Printf("Added %q to library with %d chapters\n", manga.Name, count)
		fmt.Printf("To download chapters, use: mdex download %q\n", manga.Name)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
