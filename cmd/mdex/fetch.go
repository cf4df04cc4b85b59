package cmd

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mdex/pkg/app"
	"github.com/kerbaras/mdex/pkg/services"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [manga-name]",
	Short: "Search by title and download every chapter of the exact match",
	Long:  "Search MangaDex by title, pick the result whose title matches the query case-insensitively and download all of its chapters",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		language, _ := cmd.Flags().GetString("language")
		datasaver, _ := cmd.Flags().GetBool("datasaver")
		output, _ := cmd.Flags().GetString("output")

		controller := services.NewController(services.ControllerConfig{
			DownloadDir: output,
			Language:    language,
		})

		manga, err := controller.FindByTitle(query)
		if err != nil {
			cobra.CheckErr(err)
		}
		if manga == nil {
			fmt.Printf("No exact match for %q\n", query)
			return
		}

		if _, err := controller.AddMangaToLibrary(manga); err != nil {
			cobra.CheckErr(err)
		}

		downloader := controller.Downloader()
		errCh := make(chan error, 1)
		go func() {
			defer downloader.Close()
			errCh <- downloader.DownloadAll(manga, datasaver)
		}()

		if err := app.RunDownloadProgress(manga.Name, downloader.GetProgressChannel()); err != nil {
			cobra.CheckErr(err)
		}
		if err := <-errCh; err != nil {
			cobra.CheckErr(fmt.Errorf("download failed: %w", err))
		}

		fmt.Printf("%s: successfully downloaded all chapters\n", manga.Name)
	},
}

func init() {
	fetchCmd.Flags().BoolP("datasaver", "d", false, "Use reduced-quality page images")
	fetchCmd.Flags().StringP("output", "o", "", "Base output directory (default ./{manga title})")

	rootCmd.AddCommand(fetchCmd)
}
