package services

import (
	"fmt"
	"testing"

	"github.com/kerbaras/mdex/pkg/data"
	"github.com/kerbaras/mdex/pkg/mangadex"
)

type mockSearchSource struct {
	mockSource
	searchFunc func(title string, order mangadex.Order) ([]data.Manga, error)
}

func (m *mockSearchSource) Search(title string, order mangadex.Order) ([]data.Manga, error) {
	if m.searchFunc != nil {
		return m.searchFunc(title, order)
	}
	return nil, nil
}

type mockLibraryRepository struct {
	mockRepository
	getMangaFunc    func(id string) (*data.Manga, error)
	getChaptersFunc func(mangaID string) ([]*data.Chapter, error)
	listMangasFunc  func() ([]*data.Manga, error)
}

func (m *mockLibraryRepository) GetManga(id string) (*data.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(id)
	}
	return nil, nil
}

func (m *mockLibraryRepository) GetChapters(mangaID string) ([]*data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(mangaID)
	}
	return nil, nil
}

func (m *mockLibraryRepository) ListMangas() ([]*data.Manga, error) {
	if m.listMangasFunc != nil {
		return m.listMangasFunc()
	}
	return nil, nil
}

func TestControllerFindByTitle(t *testing.T) {
	controller := &Controller{
		source: &mockSearchSource{
			searchFunc: func(title string, order mangadex.Order) ([]data.Manga, error) {
				return []data.Manga{
					{ID: "1", Name: "Berserk of Gluttony"},
					{ID: "2", Name: "Berserk"},
				}, nil
			},
		},
	}

	t.Run("exact case-insensitive match", func(t *testing.T) {
		manga, err := controller.FindByTitle("berserk")
		if err != nil {
			t.Fatalf("FindByTitle() error = %v", err)
		}
		if manga == nil || manga.ID != "2" {
			t.Errorf("FindByTitle() = %v, want the exact-title entry", manga)
		}
	})

	t.Run("near match is not a match", func(t *testing.T) {
		manga, err := controller.FindByTitle("berserk of")
		if err != nil {
			t.Fatalf("FindByTitle() error = %v", err)
		}
		if manga != nil {
			t.Errorf("FindByTitle() = %v, want nil for a partial title", manga)
		}
	})

	t.Run("search error propagates", func(t *testing.T) {
		failing := &Controller{
			source: &mockSearchSource{
				searchFunc: func(title string, order mangadex.Order) ([]data.Manga, error) {
					return nil, fmt.Errorf("upstream down")
				},
			},
		}
		if _, err := failing.FindByTitle("anything"); err == nil {
			t.Error("FindByTitle() should surface search errors")
		}
	})
}

func TestControllerAddMangaToLibrary(t *testing.T) {
	savedManga := false
	savedChapters := 0

	controller := &Controller{
		source: &mockSearchSource{
			mockSource: mockSource{
				getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
					return []data.Chapter{
						{ID: "ch1", Number: "1"},
						{ID: "ch2", Number: "2"},
					}, nil
				},
			},
		},
		repo: &mockLibraryRepository{
			mockRepository: mockRepository{
				saveMangaFunc: func(manga *data.Manga) error {
					savedManga = true
					return nil
				},
				saveChapterFunc: func(chapter *data.Chapter) error {
					savedChapters++
					return nil
				},
			},
		},
	}

	manga := &data.Manga{ID: "manga-1", Name: "Test"}
	count, err := controller.AddMangaToLibrary(manga)
	if err != nil {
		t.Fatalf("AddMangaToLibrary() error = %v", err)
	}
	if count != 2 {
		t.Errorf("AddMangaToLibrary() count = %d, want 2", count)
	}
	if !savedManga {
		t.Error("Manga should have been saved")
	}
	if savedChapters != 2 {
		t.Errorf("Expected 2 chapters saved, got %d", savedChapters)
	}
}

func TestControllerAddMangaToLibraryChapterFetchFails(t *testing.T) {
	controller := &Controller{
		source: &mockSearchSource{
			mockSource: mockSource{
				getChaptersFunc: func(mangaID string) ([]data.Chapter, error) {
					return nil, fmt.Errorf("feed unavailable")
				},
			},
		},
		repo: &mockLibraryRepository{
			mockRepository: mockRepository{
				saveMangaFunc: func(manga *data.Manga) error {
					t.Error("manga must not be saved when the feed fails")
					return nil
				},
			},
		},
	}

	if _, err := controller.AddMangaToLibrary(&data.Manga{ID: "manga-1"}); err == nil {
		t.Error("AddMangaToLibrary() should fail when the feed fails")
	}
}
