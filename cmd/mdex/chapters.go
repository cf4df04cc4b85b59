package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mdex/pkg/mangadex"
	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters [manga-id]",
	Short: "List a manga's chapters",
	Long:  "List every chapter of a manga in the preferred language, in feed order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mangaID := args[0]
		language, _ := cmd.Flags().GetString("language")
		limit, _ := cmd.Flags().GetInt("limit")

		client := mangadex.NewClient(mangadex.Options{Language: language})

		manga, err := client.GetManga(mangaID)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to get manga: %w", err))
		}

		// Page through the feed lazily so --limit stops fetching early.
		var rows []table.Row
		feed := client.ChapterFeed(mangaID)
	collect:
		for feed.Next() {
			for _, ch := range feed.Page() {
				rows = append(rows, table.Row{
					ch.Number,
					ch.Volume,
					truncateString(ch.Title, 38),
					fmt.Sprintf("%d", ch.Pages),
				})
				if limit > 0 && len(rows) >= limit {
					break collect
				}
			}
		}
		if err := feed.Err(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to list chapters: %w", err))
		}

		if len(rows) == 0 {
			fmt.Printf("%s: no chapters available in %q\n", manga.Name, language)
			return
		}

		columns := []table.Column{
			{Title: "Chapter", Width: 10},
			{Title: "Volume", Width: 8},
			{Title: "Title", Width: 40},
			{Title: "Pages", Width: 6},
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		t.SetStyles(s)

		fmt.Printf("\n%s (%d chapters)\n\n", manga.Name, len(rows))
		fmt.Println(t.View())
	},
}

func init() {
	chaptersCmd.Flags().Int("limit", 0, "Stop after this many chapters (0 = all)")

	rootCmd.AddCommand(chaptersCmd)
}
