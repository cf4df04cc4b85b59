package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kerbaras/mdex/pkg/app"
	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/services"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [manga-name or manga-id]",
	Short: "Download manga chapters",
	Long:  "Download chapter page images of a manga from your library or by ID",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		identifier := args[0]
		language, _ := cmd.Flags().GetString("language")
		chapterNumber, _ := cmd.Flags().GetString("chapter")
		datasaver, _ := cmd.Flags().GetBool("datasaver")
		output, _ := cmd.Flags().GetString("output")

		controller := services.NewController(services.ControllerConfig{
			DownloadDir: output,
			Language:    language,
		})

		// Library name match first, then the argument is taken as an id.
		var manga *data.Manga
		mangas, _ := controller.Repo().ListMangas()
		for _, m := range mangas {
			if strings.EqualFold(m.Name, identifier) {
				manga = m
				fmt.Printf("Found %q in library\n", m.Name)
				break
			}
		}
		if manga == nil {
			m, err := controller.Source().GetManga(identifier)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to resolve manga %q: %w", identifier, err))
			}
			manga = m
		}

		downloader := controller.Downloader()
		errCh := make(chan error, 1)
		go func() {
			defer downloader.Close()
			if chapterNumber != "" {
				errCh <- downloader.DownloadChapterByNumber(manga, chapterNumber, datasaver)
			} else {
				errCh <- downloader.DownloadAll(manga, datasaver)
			}
		}()

		if err := app.RunDownloadProgress(manga.Name, downloader.GetProgressChannel()); err != nil {
			cobra.CheckErr(err)
		}

		if err := <-errCh; err != nil {
			if errors.Is(err, services.ErrChapterNotFound) {
				fmt.Printf("%s: could not find a match for chapter %q\n", manga.Name, chapterNumber)
				return
			}
			cobra.CheckErr(fmt.Errorf("download failed: %w", err))
		}

		if chapterNumber != "" {
			fmt.Printf("%s: successfully downloaded chapter %s\n", manga.Name, chapterNumber)
		} else {
			fmt.Printf("%s: successfully downloaded all chapters\n", manga.Name)
		}
	},
}

func init() {
	downloadCmd.Flags().StringP("chapter", "c", "", "Download only the chapter with this exact number label")
	downloadCmd.Flags().BoolP("datasaver", "d", false, "Use reduced-quality page images")
	downloadCmd.Flags().StringP("output", "o", "", "Base output directory (default ./{manga title})")

	rootCmd.AddCommand(downloadCmd)
}
