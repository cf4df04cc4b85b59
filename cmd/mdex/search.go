package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/mangadex"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for manga",
	Long:  "Search for manga on MangaDex by title or tags and display results in a table",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		language, _ := cmd.Flags().GetString("language")
		sortField, _ := cmd.Flags().GetString("sort")
		sortDir, _ := cmd.Flags().GetString("direction")
		includeTags, _ := cmd.Flags().GetStringSlice("tags")
		excludeTags, _ := cmd.Flags().GetStringSlice("exclude-tags")

		client := mangadex.NewClient(mangadex.Options{Language: language})

		var order mangadex.Order
		if sortField != "" {
			order = mangadex.Order{sortField: sortDir}
		}

		if query == "" && len(includeTags) == 0 && len(excludeTags) == 0 {
			cobra.CheckErr(fmt.Errorf("provide a title query or --tags"))
		}

		var results []data.Manga
		var err error
		if len(includeTags) > 0 || len(excludeTags) > 0 {
			results, err = client.SearchByTags(includeTags, excludeTags, order)
		} else {
			results, err = client.Search(query, order)
		}
		if err != nil {
			cobra.CheckErr(fmt.Errorf("search failed: %w", err))
		}

		if len(results) == 0 {
			fmt.Println("No results found.")
			return
		}

		var (
			purple = lipgloss.Color("99")

			headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
			cellStyle   = lipgloss.NewStyle().Padding(0, 1)
		)

		t := table.New().
			Border(lipgloss.HiddenBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(purple)).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				default:
					return cellStyle
				}
			}).
			Headers("#", "Name", "Year", "Status", "ID")

		for i, manga := range results {
			year := ""
			if manga.Year > 0 {
				year = fmt.Sprintf("%d", manga.Year)
			}
			t.Row(fmt.Sprintf("%d", i+1), truncateString(manga.Name, 48), year, manga.Status, manga.ID)
		}

		fmt.Println(t)
	},
}

func init() {
	searchCmd.Flags().String("sort", "", "Sort field (e.g. rating, followedCount)")
	searchCmd.Flags().String("direction", "desc", "Sort direction (asc or desc)")
	searchCmd.Flags().StringSlice("tags", nil, "Tags to include (by English name)")
	searchCmd.Flags().StringSlice("exclude-tags", nil, "Tags to exclude (by English name)")

	rootCmd.AddCommand(searchCmd)
}
