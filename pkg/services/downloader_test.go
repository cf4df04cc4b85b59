package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/mangadex"
)

// Mock implementations for testing

type mockSource struct {
	getMangaFunc       func(id string) (*data.Manga, error)
	getChaptersFunc    func(mangaID string) ([]data.Chapter, error)
	getPageSessionFunc func(chapterID string) (*mangadex.PageSession, error)
	getPageFunc        func(session *mangadex.PageSession, pagePath string, datasaver bool) ([]byte, error)
}

func (m *mockSource) GetManga(id string) (*data.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(id)
	}
	return nil, nil
}

func (m *mockSource) GetChapters(mangaID string) ([]data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(mangaID)
	}
	return nil, nil
}

func (m *mockSource) GetPageSession(chapterID string) (*mangadex.PageSession, error) {
	if m.getPageSessionFunc != nil {
		return m.getPageSessionFunc(chapterID)
	}
	return &mangadex.PageSession{}, nil
}

func (m *mockSource) GetPage(session *mangadex.PageSession, pagePath string, datasaver bool) ([]byte, error) {
	if m.getPageFunc != nil {
		return m.getPageFunc(session, pagePath, datasaver)
	}
	return []byte(pagePath), nil
}

type mockRepository struct {
	saveMangaFunc           func(manga *data.Manga) error
	saveChapterFunc         func(chapter *data.Chapter) error
	updateChapterStatusFunc func(chapterID string, downloaded bool, filePath string) error
}

func (m *mockRepository) SaveManga(manga *data.Manga) error {
	if m.saveMangaFunc != nil {
		return m.saveMangaFunc(manga)
	}
	return nil
}

func (m *mockRepository) SaveChapter(chapter *data.Chapter) error {
	if m.saveChapterFunc != nil {
		return m.saveChapterFunc(chapter)
	}
	return nil
}

func (m *mockRepository) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	if m.updateChapterStatusFunc != nil {
		return m.updateChapterStatusFunc(chapterID, downloaded, filePath)
	}
	return nil
}

func testSession() *mangadex.PageSession {
	return &mangadex.PageSession{
		BaseURL:   "https://cdn.example.org",
		Hash:      "abc123",
		Data:      []string{"p1-full.png", "p2-full.png"},
		DataSaver: []string{"p1-small.jpg", "p2-small.jpg"},
	}
}

func TestDownloadChapter(t *testing.T) {
	manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}

	t.Run("writes pages with 1-based names", func(t *testing.T) {
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
		}
		dir := t.TempDir()
		downloader := NewDownloader(source, &mockRepository{}, dir)
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "1", Title: "First", Pages: 2}
		if err := downloader.DownloadChapter(manga, chapter, false); err != nil {
			t.Fatalf("DownloadChapter() error = %v", err)
		}

		chapterDir := filepath.Join(dir, "1: First")
		for i, want := range []string{"p1-full.png", "p2-full.png"} {
			got, err := os.ReadFile(filepath.Join(chapterDir, fmt.Sprintf("%d.png", i+1)))
			if err != nil {
				t.Fatalf("page %d missing: %v", i+1, err)
			}
			// Round-trip: written bytes equal the fetched body.
			if !bytes.Equal(got, []byte(want)) {
				t.Errorf("page %d content = %q, want %q", i+1, got, want)
			}
		}

		if !chapter.Downloaded {
			t.Error("chapter should be marked as downloaded")
		}
		if chapter.FilePath != chapterDir {
			t.Errorf("chapter FilePath = %q, want %q", chapter.FilePath, chapterDir)
		}
	})

	t.Run("untitled chapter uses bare number", func(t *testing.T) {
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
		}
		dir := t.TempDir()
		downloader := NewDownloader(source, nil, dir)
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "12.5"}
		if err := downloader.DownloadChapter(manga, chapter, false); err != nil {
			t.Fatalf("DownloadChapter() error = %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "12.5", "1.png")); err != nil {
			t.Errorf("expected page under bare-number directory: %v", err)
		}
	})

	t.Run("datasaver uses reduced paths", func(t *testing.T) {
		var fetched []string
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
			getPageFunc: func(session *mangadex.PageSession, pagePath string, datasaver bool) ([]byte, error) {
				if !datasaver {
					t.Error("expected datasaver fetches")
				}
				fetched = append(fetched, pagePath)
				return []byte("x"), nil
			},
		}
		dir := t.TempDir()
		downloader := NewDownloader(source, nil, dir)
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "1"}
		if err := downloader.DownloadChapter(manga, chapter, true); err != nil {
			t.Fatalf("DownloadChapter() error = %v", err)
		}

		if len(fetched) != 2 || fetched[0] != "p1-small.jpg" {
			t.Errorf("fetched = %v, want datasaver paths", fetched)
		}
		if _, err := os.Stat(filepath.Join(dir, "1", "1.jpg")); err != nil {
			t.Errorf("expected jpg extension from datasaver path: %v", err)
		}
	})

	t.Run("declared page count mismatch is tolerated", func(t *testing.T) {
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil // serves 2 pages
			},
		}
		dir := t.TempDir()
		downloader := NewDownloader(source, nil, dir)
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "1", Pages: 5}
		if err := downloader.DownloadChapter(manga, chapter, false); err != nil {
			t.Fatalf("DownloadChapter() error = %v, want pipeline to survive mismatch", err)
		}

		entries, _ := os.ReadDir(filepath.Join(dir, "1"))
		if len(entries) != 2 {
			t.Errorf("expected the 2 served pages, got %d files", len(entries))
		}
	})

	t.Run("re-download overwrites with identical bytes", func(t *testing.T) {
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
		}
		dir := t.TempDir()
		downloader := NewDownloader(source, nil, dir)
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "1"}
		if err := downloader.DownloadChapter(manga, chapter, false); err != nil {
			t.Fatal(err)
		}
		first, _ := os.ReadFile(filepath.Join(dir, "1", "1.png"))

		if err := downloader.DownloadChapter(manga, chapter, false); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		second, _ := os.ReadFile(filepath.Join(dir, "1", "1.png"))

		if !bytes.Equal(first, second) {
			t.Error("re-download corrupted page content")
		}
	})

	t.Run("failed page fetch aborts without retry", func(t *testing.T) {
		calls := 0
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
			getPageFunc: func(session *mangadex.PageSession, pagePath string, datasaver bool) ([]byte, error) {
				calls++
				return nil, fmt.Errorf("cdn hiccup")
			},
		}
		downloader := NewDownloader(source, nil, t.TempDir())
		defer downloader.Close()

		chapter := &data.Chapter{ID: "ch-1", Number: "1"}
		if err := downloader.DownloadChapter(manga, chapter, false); err == nil {
			t.Fatal("expected error from failed page fetch")
		}
		if calls != 1 {
			t.Errorf("page fetch retried %d times, want exactly 1 attempt", calls)
		}
	})

	t.Run("session resolve failure propagates", func(t *testing.T) {
		source := &mockSource{
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return nil, &mangadex.ResultError{Status: 404, Title: "not_found"}
			},
		}
		downloader := NewDownloader(source, nil, t.TempDir())
		defer downloader.Close()

		err := downloader.DownloadChapter(manga, &data.Chapter{ID: "ch-1", Number: "1"}, false)
		var resErr *mangadex.ResultError
		if !errors.As(err, &resErr) {
			t.Errorf("expected ResultError to propagate unmodified, got %v", err)
		}
	})

	t.Run("nil manga", func(t *testing.T) {
		downloader := NewDownloader(&mockSource{}, nil, t.TempDir())
		defer downloader.Close()
		if err := downloader.DownloadChapter(nil, &data.Chapter{}, false); err == nil {
			t.Error("DownloadChapter() should fail with nil manga")
		}
	})
}

func TestDownloadAll(t *testing.T) {
	chapters := []data.Chapter{
		{ID: "ch-1", Number: "1", Title: "First"},
		{ID: "ch-2", Number: "2", Title: "Second"},
	}

	t.Run("downloads every chapter in feed order", func(t *testing.T) {
		var resolved []string
		source := &mockSource{
			getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
				return chapters, nil
			},
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				resolved = append(resolved, chapterID)
				return testSession(), nil
			},
		}

		saved := 0
		repo := &mockRepository{
			saveChapterFunc: func(chapter *data.Chapter) error {
				saved++
				return nil
			},
		}

		dir := t.TempDir()
		downloader := NewDownloader(source, repo, dir)
		defer downloader.Close()

		manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}
		if err := downloader.DownloadAll(manga, false); err != nil {
			t.Fatalf("DownloadAll() error = %v", err)
		}

		if len(resolved) != 2 || resolved[0] != "ch-1" || resolved[1] != "ch-2" {
			t.Errorf("resolved = %v, want feed order", resolved)
		}
		if saved != 2 {
			t.Errorf("saved %d chapters to library, want 2", saved)
		}
		if _, err := os.Stat(filepath.Join(dir, "2: Second", "2.png")); err != nil {
			t.Errorf("second chapter pages missing: %v", err)
		}
	})

	t.Run("first chapter failure aborts the batch", func(t *testing.T) {
		source := &mockSource{
			getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
				return chapters, nil
			},
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				if chapterID == "ch-1" {
					return nil, fmt.Errorf("boom")
				}
				return testSession(), nil
			},
		}

		dir := t.TempDir()
		downloader := NewDownloader(source, nil, dir)
		defer downloader.Close()

		manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}
		if err := downloader.DownloadAll(manga, false); err == nil {
			t.Fatal("expected batch to abort")
		}

		if _, err := os.Stat(filepath.Join(dir, "2: Second")); !os.IsNotExist(err) {
			t.Error("later chapters must not be downloaded after an abort")
		}
	})

	t.Run("emits progress", func(t *testing.T) {
		source := &mockSource{
			getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
				return chapters[:1], nil
			},
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				return testSession(), nil
			},
		}

		downloader := NewDownloader(source, nil, t.TempDir())

		manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}
		if err := downloader.DownloadAll(manga, false); err != nil {
			t.Fatal(err)
		}
		downloader.Close()

		var updates []DownloadProgress
		for p := range downloader.GetProgressChannel() {
			updates = append(updates, p)
		}

		if len(updates) == 0 {
			t.Fatal("expected progress updates")
		}
		last := updates[len(updates)-1]
		if last.Status != "complete" {
			t.Errorf("last status = %q, want complete", last.Status)
		}
	})
}

func TestDownloadChapterByNumber(t *testing.T) {
	chapters := []data.Chapter{
		{ID: "ch-9", Number: "9"},
		{ID: "ch-10", Number: "10"},
		{ID: "ch-10-1", Number: "10.1"},
	}

	source := func(resolved *[]string) *mockSource {
		return &mockSource{
			getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
				return chapters, nil
			},
			getPageSessionFunc: func(chapterID string) (*mangadex.PageSession, error) {
				*resolved = append(*resolved, chapterID)
				return testSession(), nil
			},
		}
	}

	t.Run("exact string match only", func(t *testing.T) {
		var resolved []string
		downloader := NewDownloader(source(&resolved), nil, t.TempDir())
		defer downloader.Close()

		manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}
		if err := downloader.DownloadChapterByNumber(manga, "10", false); err != nil {
			t.Fatalf("DownloadChapterByNumber() error = %v", err)
		}

		if len(resolved) != 1 || resolved[0] != "ch-10" {
			t.Errorf("resolved = %v, want only ch-10", resolved)
		}
	})

	t.Run("no match", func(t *testing.T) {
		var resolved []string
		downloader := NewDownloader(source(&resolved), nil, t.TempDir())
		defer downloader.Close()

		manga := &data.Manga{ID: "manga-1", Name: "Test Manga"}
		err := downloader.DownloadChapterByNumber(manga, "10.0", false)
		if !errors.Is(err, ErrChapterNotFound) {
			t.Errorf("err = %v, want ErrChapterNotFound ('10.0' must not match '10')", err)
		}
		if len(resolved) != 0 {
			t.Errorf("resolved = %v, want none", resolved)
		}
	})
}
