package data

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS mangas (
	id TEXT PRIMARY KEY,
	name TEXT,
	description TEXT,
	status TEXT,
	year INTEGER,
	content_rating TEXT,
	original_language TEXT,
	available_languages TEXT,
	tags TEXT
);
CREATE TABLE IF NOT EXISTS chapters (
	id TEXT PRIMARY KEY,
	manga_id TEXT,
	title TEXT,
	volume TEXT,
	number TEXT,
	pages INTEGER,
	language TEXT,
	downloaded BOOLEAN DEFAULT FALSE,
	file_path TEXT
);
`

func InitDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

type Repository struct {
	db *sql.DB
}

var duckDB *sql.DB

func NewDuckDBRepository() *Repository {
	if duckDB == nil {
		db, err := InitDuckDB("mdex.db")
		if err != nil {
			log.Fatal(err)
		}
		duckDB = db
	}

	return &Repository{db: duckDB}
}

// NewRepository wraps an already-opened database, used by tests.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveManga(manga *Manga) error {
	tagNames := make([]string, len(manga.Tags))
	for i, tag := range manga.Tags {
		tagNames[i] = tag.Name
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO mangas
			(id, name, description, status, year, content_rating, original_language, available_languages, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		manga.ID, manga.Name, manga.Description, manga.Status, manga.Year,
		manga.ContentRating, manga.OriginalLanguage,
		strings.Join(manga.AvailableLanguages, ","), strings.Join(tagNames, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to save manga %s: %w", manga.ID, err)
	}
	return nil
}

func (r *Repository) GetManga(id string) (*Manga, error) {
	row := r.db.QueryRow(`
		SELECT id, name, description, status, year, content_rating, original_language, available_languages, tags
		FROM mangas WHERE id = ?`, id)

	var m Manga
	var langs, tags string
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Status, &m.Year,
		&m.ContentRating, &m.OriginalLanguage, &langs, &tags)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manga %s: %w", id, err)
	}
	if langs != "" {
		m.AvailableLanguages = strings.Split(langs, ",")
	}
	for _, name := range strings.Split(tags, ",") {
		if name != "" {
			m.Tags = append(m.Tags, Tag{Name: name})
		}
	}
	return &m, nil
}

func (r *Repository) ListMangas() ([]*Manga, error) {
	rows, err := r.db.Query(`SELECT id, name, description, status FROM mangas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mangas: %w", err)
	}
	defer rows.Close()

	var mangas []*Manga
	for rows.Next() {
		var m Manga
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Status); err != nil {
			return nil, err
		}
		mangas = append(mangas, &m)
	}
	return mangas, rows.Err()
}

func (r *Repository) SaveChapter(chapter *Chapter) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO chapters
			(id, manga_id, title, volume, number, pages, language, downloaded, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chapter.ID, chapter.MangaID, chapter.Title, chapter.Volume, chapter.Number,
		chapter.Pages, chapter.Language, chapter.Downloaded, chapter.FilePath,
	)
	if err != nil {
		return fmt.Errorf("failed to save chapter %s: %w", chapter.ID, err)
	}
	return nil
}

// GetChapters returns a manga's chapters ordered by numeric volume and number.
// Labels that do not parse as numbers sort first (TRY_CAST yields NULL).
func (r *Repository) GetChapters(mangaID string) ([]*Chapter, error) {
	rows, err := r.db.Query(`
		SELECT id, manga_id, title, volume, number, pages, language, downloaded, file_path
		FROM chapters WHERE manga_id = ?
		ORDER BY TRY_CAST(volume AS DOUBLE), TRY_CAST(number AS DOUBLE)`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapters for %s: %w", mangaID, err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.MangaID, &c.Title, &c.Volume, &c.Number,
			&c.Pages, &c.Language, &c.Downloaded, &c.FilePath); err != nil {
			return nil, err
		}
		chapters = append(chapters, &c)
	}
	return chapters, rows.Err()
}

func (r *Repository) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	_, err := r.db.Exec(`UPDATE chapters SET downloaded = ?, file_path = ? WHERE id = ?`,
		downloaded, filePath, chapterID)
	if err != nil {
		return fmt.Errorf("failed to update chapter %s: %w", chapterID, err)
	}
	return nil
}

// GetMangaWithChapterCount returns a manga plus its total and downloaded chapter counts.
func (r *Repository) GetMangaWithChapterCount(id string) (*Manga, int, int, error) {
	manga, err := r.GetManga(id)
	if err != nil || manga == nil {
		return nil, 0, 0, err
	}

	var total, downloaded int
	row := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE downloaded)
		FROM chapters WHERE manga_id = ?`, id)
	if err := row.Scan(&total, &downloaded); err != nil {
		return nil, 0, 0, err
	}
	return manga, total, downloaded, nil
}

func (r *Repository) DeleteManga(mangaID string) error {
	if _, err := r.db.Exec(`DELETE FROM chapters WHERE manga_id = ?`, mangaID); err != nil {
		return err
	}
	if _, err := r.db.Exec(`DELETE FROM mangas WHERE id = ?`, mangaID); err != nil {
		return err
	}
	return nil
}
