package mangadex

import (
	"net/url"

	"github.com/kerbaras/mdex/pkg/data"
)

// Order maps a sort field to "asc" or "desc". Encoded with the API's
// deep-object convention: order[field]=direction.
// See https://api.mangadex.org/docs/3-enumerations/#manga-order-options
type Order map[string]string

func (o Order) encode(params url.Values) {
	for field, direction := range o {
		params.Set("order["+field+"]", direction)
	}
}

type mangaResult struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Title                        map[string]string   `json:"title"`
		AltTitles                    []map[string]string `json:"altTitles"`
		Description                  map[string]string   `json:"description"`
		Status                       string              `json:"status"`
		Year                         int                 `json:"year"`
		ContentRating                string              `json:"contentRating"`
		OriginalLanguage             string              `json:"originalLanguage"`
		AvailableTranslatedLanguages []string            `json:"availableTranslatedLanguages"`
		Links                        map[string]string   `json:"links"`
		Tags                         []tagResult         `json:"tags"`
	} `json:"attributes"`
}

type tagResult struct {
	ID         string `json:"id"`
	Attributes struct {
		Name map[string]string `json:"name"`
	} `json:"attributes"`
}

// toManga normalizes a raw search result. The display title starts from the
// English title and is overwritten by the first alternate title matching the
// preferred language, so a preferred-language alternate always wins.
func (m *mangaResult) toManga(lang string) *data.Manga {
	title := m.Attributes.Title["en"]
	for _, alt := range m.Attributes.AltTitles {
		if t, ok := alt[lang]; ok {
			title = t
			break
		}
	}

	tags := make([]data.Tag, 0, len(m.Attributes.Tags))
	for _, tag := range m.Attributes.Tags {
		tags = append(tags, data.Tag{ID: tag.ID, Name: tag.Attributes.Name["en"]})
	}

	return &data.Manga{
		ID:                 m.ID,
		Name:               title,
		Description:        m.Attributes.Description[lang],
		Type:               m.Type,
		Status:             m.Attributes.Status,
		Year:               m.Attributes.Year,
		ContentRating:      m.Attributes.ContentRating,
		Tags:               tags,
		OriginalLanguage:   m.Attributes.OriginalLanguage,
		AvailableLanguages: m.Attributes.AvailableTranslatedLanguages,
		Links:              m.Attributes.Links,
	}
}

// GetManga looks a manga up by its id hash.
func (c *Client) GetManga(id string) (*data.Manga, error) {
	var result struct {
		Data mangaResult `json:"data"`
	}
	if err := c.getJSON("manga/"+id, nil, &result); err != nil {
		return nil, err
	}
	return result.Data.toManga(c.lang), nil
}

// Search looks mangas up by free-text title, ordered as the server returns
// them. order may be nil.
func (c *Client) Search(title string, order Order) ([]data.Manga, error) {
	params := url.Values{}
	params.Set("title", title)
	order.encode(params)
	return c.searchManga(params)
}

// SearchByTags looks mangas up by human-readable tag names to include and
// exclude. Tag names are first resolved to ids via the full tag dictionary.
func (c *Client) SearchByTags(includeTags, excludeTags []string, order Order) ([]data.Manga, error) {
	tags, err := c.GetTags()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag.ID
	}

	params := url.Values{}
	for _, name := range includeTags {
		if id, ok := byName[name]; ok {
			params.Add("includedTags[]", id)
		}
	}
	for _, name := range excludeTags {
		if id, ok := byName[name]; ok {
			params.Add("excludedTags[]", id)
		}
	}
	order.encode(params)
	return c.searchManga(params)
}

// GetTags fetches the catalog's full tag dictionary.
func (c *Client) GetTags() ([]data.Tag, error) {
	var result struct {
		Data []tagResult `json:"data"`
	}
	if err := c.getJSON("manga/tag", nil, &result); err != nil {
		return nil, err
	}
	tags := make([]data.Tag, len(result.Data))
	for i, tag := range result.Data {
		tags[i] = data.Tag{ID: tag.ID, Name: tag.Attributes.Name["en"]}
	}
	return tags, nil
}

func (c *Client) searchManga(params url.Values) ([]data.Manga, error) {
	var result struct {
		Data []mangaResult `json:"data"`
	}
	if err := c.getJSON("manga", params, &result); err != nil {
		return nil, err
	}
	mangas := make([]data.Manga, len(result.Data))
	for i := range result.Data {
		mangas[i] = *result.Data[i].toManga(c.lang)
	}
	return mangas, nil
}
