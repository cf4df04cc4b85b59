package services

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/mangadex"
)

// SearchSource extends Source with free-text search, needed by the
// title-match flow.
type SearchSource interface {
	Source
	Search(title string, order mangadex.Order) ([]data.Manga, error)
}

// LibraryRepository is the full repository surface the controller exposes to
// commands.
type LibraryRepository interface {
	Repository
	GetManga(id string) (*data.Manga, error)
	GetChapters(mangaID string) ([]*data.Chapter, error)
	ListMangas() ([]*data.Manga, error)
}

type ControllerConfig struct {
	DownloadDir string // empty means ./{manga name}
	Language    string
}

// Controller wires the catalog client, the library repository and the
// downloader together for the CLI commands.
type Controller struct {
	source     SearchSource
	repo       LibraryRepository
	downloader *Downloader
}

func NewController(cfg ControllerConfig) *Controller {
	source := mangadex.NewClient(mangadex.Options{
		Language: cfg.Language,
		OnCooldown: func(endpoint string, remaining int) {
			if remaining > 0 {
				fmt.Printf("\r\x1b[2KHit rate limit for the `%s` endpoint, cooling down for %d seconds ", endpoint, remaining)
			} else {
				fmt.Print("\r\x1b[2K")
			}
		},
	})
	repo := data.NewDuckDBRepository()
	downloader := NewDownloader(source, repo, cfg.DownloadDir)
	return &Controller{source: source, repo: repo, downloader: downloader}
}

func (c *Controller) Source() SearchSource    { return c.source }
func (c *Controller) Repo() LibraryRepository { return c.repo }
func (c *Controller) Downloader() *Downloader { return c.downloader }

// FindByTitle searches the catalog and returns the first result whose
// resolved title matches the query case-insensitively, or nil when none does.
func (c *Controller) FindByTitle(title string) (*data.Manga, error) {
	results, err := c.source.Search(title, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	for i := range results {
		if strings.EqualFold(results[i].Name, title) {
			return &results[i], nil
		}
	}
	return nil, nil
}

// AddMangaToLibrary saves a manga and its chapter metadata without
// downloading anything.
func (c *Controller) AddMangaToLibrary(manga *data.Manga) (int, error) {
	chapters, err := c.source.GetChapters(manga.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to get chapters: %w", err)
	}
	if err := c.repo.SaveManga(manga); err != nil {
		return 0, fmt.Errorf("failed to save manga: %w", err)
	}
	for i := range chapters {
		if err := c.repo.SaveChapter(&chapters[i]); err != nil {
			return 0, fmt.Errorf("failed to save chapter %s: %w", chapters[i].Number, err)
		}
	}
	return len(chapters), nil
}

// Close releases the downloader's progress channel.
func (c *Controller) Close() {
	c.downloader.Close()
}
