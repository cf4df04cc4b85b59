package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/mangadex"
)

// ErrChapterNotFound reports that no chapter carried the requested number.
var ErrChapterNotFound = errors.New("no chapter matched")

// DownloadProgress represents the progress of a download operation
type DownloadProgress struct {
	MangaID       string
	ChapterID     string
	ChapterNumber string
	ChapterTitle  string
	CurrentPage   int
	TotalPages    int
	ChapterIndex  int
	TotalChapters int
	Status        string // "downloading", "complete", "error"
	Error         error
}

// Source is the catalog client the downloader pulls chapters and pages from.
type Source interface {
	GetManga(id string) (*data.Manga, error)
	GetChapters(mangaID string) ([]data.Chapter, error)
	GetPageSession(chapterID string) (*mangadex.PageSession, error)
	GetPage(session *mangadex.PageSession, pagePath string, datasaver bool) ([]byte, error)
}

// Repository interface needed by the downloader
type Repository interface {
	SaveManga(manga *data.Manga) error
	SaveChapter(chapter *data.Chapter) error
	UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error
}

// Downloader persists chapter pages to disk, one chapter and one page at a
// time. Page ordering inside a chapter depends on fetch order, so pages are
// never parallelized; the transport's cooldown already serializes the slow
// path anyway.
type Downloader struct {
	source       Source
	repo         Repository
	baseDir      string // empty means ./{manga name}
	progressChan chan DownloadProgress
}

// NewDownloader creates a new Downloader. baseDir overrides the default
// per-manga output directory when non-empty. repo may be nil to skip library
// bookkeeping.
func NewDownloader(source Source, repo Repository, baseDir string) *Downloader {
	return &Downloader{
		source:       source,
		repo:         repo,
		baseDir:      baseDir,
		progressChan: make(chan DownloadProgress, 100),
	}
}

// GetProgressChannel returns the channel for receiving download progress updates
func (d *Downloader) GetProgressChannel() <-chan DownloadProgress {
	return d.progressChan
}

// DownloadAll downloads every chapter of a manga in feed order. The first
// chapter failure aborts the whole batch.
func (d *Downloader) DownloadAll(manga *data.Manga, datasaver bool) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}

	chapters, err := d.source.GetChapters(manga.ID)
	if err != nil {
		return fmt.Errorf("failed to get chapters: %w", err)
	}

	if d.repo != nil {
		if err := d.repo.SaveManga(manga); err != nil {
			return fmt.Errorf("failed to save manga: %w", err)
		}
		for i := range chapters {
			if err := d.repo.SaveChapter(&chapters[i]); err != nil {
				return fmt.Errorf("failed to save chapter %s: %w", chapters[i].Number, err)
			}
		}
	}

	for i := range chapters {
		d.sendProgress(DownloadProgress{
			MangaID:       manga.ID,
			ChapterID:     chapters[i].ID,
			ChapterNumber: chapters[i].Number,
			ChapterTitle:  chapters[i].Title,
			ChapterIndex:  i,
			TotalChapters: len(chapters),
			Status:        "downloading",
		})
		if err := d.DownloadChapter(manga, &chapters[i], datasaver); err != nil {
			d.sendProgress(DownloadProgress{
				MangaID:       manga.ID,
				ChapterID:     chapters[i].ID,
				ChapterNumber: chapters[i].Number,
				Status:        "error",
				Error:         err,
			})
			return fmt.Errorf("chapter %s: %w", chapters[i].Number, err)
		}
	}

	return nil
}

// DownloadChapterByNumber downloads the single chapter whose number label is
// an exact string match ("10" does not match "10.0").
func (d *Downloader) DownloadChapterByNumber(manga *data.Manga, number string, datasaver bool) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}

	chapters, err := d.source.GetChapters(manga.ID)
	if err != nil {
		return fmt.Errorf("failed to get chapters: %w", err)
	}

	for i := range chapters {
		if chapters[i].Number == number {
			return d.DownloadChapter(manga, &chapters[i], datasaver)
		}
	}
	return fmt.Errorf("chapter %q: %w", number, ErrChapterNotFound)
}

// DownloadChapter resolves a chapter's page-serving session and writes every
// page image under the chapter directory, numbered from 1. Existing files are
// overwritten.
func (d *Downloader) DownloadChapter(manga *data.Manga, chapter *data.Chapter, datasaver bool) error {
	if manga == nil {
		return fmt.Errorf("manga cannot be nil")
	}
	if chapter == nil {
		return fmt.Errorf("chapter cannot be nil")
	}

	session, err := d.source.GetPageSession(chapter.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve page session: %w", err)
	}

	// The declared page count can disagree with the session's path list when
	// the catalog and CDN are out of sync; the paths actually served win.
	pages := session.Pages(datasaver)

	dir := d.chapterDir(manga, chapter)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create chapter directory: %w", err)
	}

	for i, pagePath := range pages {
		d.sendProgress(DownloadProgress{
			MangaID:       manga.ID,
			ChapterID:     chapter.ID,
			ChapterNumber: chapter.Number,
			ChapterTitle:  chapter.Title,
			CurrentPage:   i + 1,
			TotalPages:    len(pages),
			Status:        "downloading",
		})

		img, err := d.source.GetPage(session, pagePath, datasaver)
		if err != nil {
			return fmt.Errorf("failed to fetch page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("%d.%s", i+1, mangadex.PageExt(pagePath))
		if err := os.WriteFile(filepath.Join(dir, name), img, 0644); err != nil {
			return fmt.Errorf("failed to write page %d: %w", i+1, err)
		}
	}

	chapter.Downloaded = true
	chapter.FilePath = dir
	if d.repo != nil {
		if err := d.repo.UpdateChapterStatus(chapter.ID, true, dir); err != nil {
			return fmt.Errorf("failed to update chapter status: %w", err)
		}
	}

	d.sendProgress(DownloadProgress{
		MangaID:       manga.ID,
		ChapterID:     chapter.ID,
		ChapterNumber: chapter.Number,
		ChapterTitle:  chapter.Title,
		CurrentPage:   len(pages),
		TotalPages:    len(pages),
		Status:        "complete",
	})

	return nil
}

// chapterDir is "{number}: {title}" under the base directory, or just the
// number when the chapter has no title.
func (d *Downloader) chapterDir(manga *data.Manga, chapter *data.Chapter) string {
	name := chapter.Number
	if chapter.Title != "" {
		name = fmt.Sprintf("%s: %s", chapter.Number, chapter.Title)
	}
	base := d.baseDir
	if base == "" {
		base = filepath.Join(".", manga.Name)
	}
	return filepath.Join(base, name)
}

// sendProgress sends a progress update (non-blocking)
func (d *Downloader) sendProgress(progress DownloadProgress) {
	select {
	case d.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close cleans up resources
func (d *Downloader) Close() {
	close(d.progressChan)
}
