package data

// Manga is a catalog entry as resolved from a MangaDex search. Name holds the
// resolved display title: the English title unless an alternate title in the
// preferred language exists. It may be empty when neither is present.
type Manga struct {
	ID                 string
	Name               string
	Description        string
	Type               string
	Status             string
	Year               int
	ContentRating      string
	Tags               []Tag
	OriginalLanguage   string
	AvailableLanguages []string
	Links              map[string]string
}

// Tag is a MangaDex tag with its English display name.
type Tag struct {
	ID   string
	Name string
}

type Chapter struct {
	ID         string
	MangaID    string
	Title      string
	Volume     string
	Number     string // chapter label, not numeric: "10.5" and "" are valid
	Pages      int
	Language   string
	Downloaded bool
	FilePath   string // directory the page images were written to
}
