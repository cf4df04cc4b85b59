package mangadex

import (
	"net/url"
	"strconv"

	"github.com/kerbaras/mdex/pkg/data"
)

// feedPageSize is the API's per-request cap on feed items.
const feedPageSize = 500

type chapterResult struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    string `json:"title"`
		Volume   string `json:"volume"`
		Number   string `json:"chapter"`
		Pages    int    `json:"pages"`
		Language string `json:"translatedLanguage"`
	} `json:"attributes"`
}

// Feed walks a manga's chapter feed page by page using offset pagination.
// Pages must be consumed in order against a stable feed snapshot; nothing is
// cached, so a fresh Feed re-fetches from offset zero. Usage follows the
// bufio.Scanner pattern:
//
//	feed := client.ChapterFeed(mangaID)
//	for feed.Next() {
//		chapters = append(chapters, feed.Page()...)
//	}
//	if err := feed.Err(); err != nil { ... }
type Feed struct {
	client  *Client
	mangaID string
	offset  int
	page    []data.Chapter
	done    bool
	err     error
}

// ChapterFeed starts a chapter feed iteration for a manga. Early stops are
// fine; unread pages are simply never requested.
func (c *Client) ChapterFeed(mangaID string) *Feed {
	return &Feed{client: c, mangaID: mangaID}
}

// Next fetches the next feed page, returning false once the feed is exhausted
// or a request failed. A page shorter than the API cap marks exhaustion, so a
// feed of exactly N*cap items costs one extra, empty request to confirm.
func (f *Feed) Next() bool {
	if f.done || f.err != nil {
		return false
	}

	params := url.Values{}
	params.Set("translatedLanguage[]", f.client.lang)
	params.Set("limit", strconv.Itoa(feedPageSize))
	params.Set("offset", strconv.Itoa(f.offset))

	var result struct {
		Data []chapterResult `json:"data"`
	}
	if err := f.client.getJSON("manga/"+f.mangaID+"/feed", params, &result); err != nil {
		f.err = err
		return false
	}

	f.page = make([]data.Chapter, len(result.Data))
	for i, ch := range result.Data {
		f.page[i] = data.Chapter{
			ID:       ch.ID,
			MangaID:  f.mangaID,
			Title:    ch.Attributes.Title,
			Volume:   ch.Attributes.Volume,
			Number:   ch.Attributes.Number,
			Pages:    ch.Attributes.Pages,
			Language: ch.Attributes.Language,
		}
	}
	f.offset += feedPageSize
	if len(result.Data) < feedPageSize {
		f.done = true
	}
	return true
}

// Page returns the chapters fetched by the last successful Next call.
func (f *Feed) Page() []data.Chapter { return f.page }

// Err returns the first error hit while paging, if any.
func (f *Feed) Err() error { return f.err }

// GetChapters collects the manga's complete chapter list in feed order.
func (c *Client) GetChapters(mangaID string) ([]data.Chapter, error) {
	var chapters []data.Chapter
	feed := c.ChapterFeed(mangaID)
	for feed.Next() {
		chapters = append(chapters, feed.Page()...)
	}
	if err := feed.Err(); err != nil {
		return nil, err
	}
	return chapters, nil
}
