package cmd

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/integrations"
	"github.com/spf13/cobra"
)

var epubCmd = &cobra.Command{
	Use:   "epub [manga-name]",
	Short: "Compile downloaded chapters into an EPUB",
	Long:  "Compile a library manga's downloaded chapter directories into a single EPUB file",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := strings.Join(args, " ")
		output, _ := cmd.Flags().GetString("output")
		optimize, _ := cmd.Flags().GetBool("optimize")
		grayscale, _ := cmd.Flags().GetBool("grayscale")

		repo := data.NewDuckDBRepository()

		var manga *data.Manga
		mangas, err := repo.ListMangas()
		if err != nil {
			cobra.CheckErr(err)
		}
		for _, m := range mangas {
			if strings.EqualFold(m.Name, name) {
				manga = m
				break
			}
		}
		if manga == nil {
			fmt.Printf("Could not find %q in library\n", name)
			return
		}

		chapters, err := repo.GetChapters(manga.ID)
		if err != nil {
			cobra.CheckErr(err)
		}

		builder := integrations.NewEPubBuilder(output)
		if optimize || grayscale {
			settings := integrations.DefaultImageSettings()
			settings.Grayscale = grayscale
			builder = builder.WithImageProcessor(integrations.NewImageProcessor(settings))
		}

		path, err := builder.Export(manga, chapters)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("EPUB generation failed: %w", err))
		}

		fmt.Printf("EPUB created: %s\n", path)
	},
}

func init() {
	epubCmd.Flags().StringP("output", "o", ".", "Output directory for the EPUB file")
	epubCmd.Flags().Bool("optimize", false, "Downscale oversized pages before packaging")
	epubCmd.Flags().Bool("grayscale", false, "Convert pages to grayscale")

	rootCmd.AddCommand(epubCmd)
}
