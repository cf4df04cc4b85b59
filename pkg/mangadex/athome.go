package mangadex

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// PageSession is the short-lived page-serving session the at-home endpoint
// issues for one chapter: a CDN base URL, a content hash, and the ordered page
// paths in full quality and datasaver quality. It lives only for the duration
// of one chapter's download.
type PageSession struct {
	BaseURL   string
	Hash      string
	Data      []string
	DataSaver []string
}

// Pages returns the page-path sequence for the requested quality.
func (s *PageSession) Pages(datasaver bool) []string {
	if datasaver {
		return s.DataSaver
	}
	return s.Data
}

// GetPageSession resolves a chapter to its page-serving session.
func (c *Client) GetPageSession(chapterID string) (*PageSession, error) {
	var result struct {
		BaseURL string `json:"baseUrl"`
		Chapter struct {
			Hash      string   `json:"hash"`
			Data      []string `json:"data"`
			DataSaver []string `json:"dataSaver"`
		} `json:"chapter"`
	}
	if err := c.getJSON("at-home/server/"+chapterID, nil, &result); err != nil {
		return nil, err
	}
	return &PageSession{
		BaseURL:   result.BaseURL,
		Hash:      result.Chapter.Hash,
		Data:      result.Chapter.Data,
		DataSaver: result.Chapter.DataSaver,
	}, nil
}

// GetPage fetches one page image through the session's CDN. The endpoint is
// {quality}/{hash}/{page-path} resolved against the session base URL. Failed
// fetches are not retried here; the transport's 429 cycle is the only
// built-in resilience.
func (c *Client) GetPage(session *PageSession, pagePath string, datasaver bool) ([]byte, error) {
	quality := "data"
	if datasaver {
		quality = "data-saver"
	}
	endpoint := fmt.Sprintf("%s/%s/%s", quality, session.Hash, pagePath)

	resp, err := c.Get(endpoint, nil, session.BaseURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch %s: unexpected status %s", pagePath, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// PageExt derives a file extension from a page path's last dot-delimited,
// non-empty segment.
func PageExt(pagePath string) string {
	ext := ""
	for _, seg := range strings.Split(pagePath, ".") {
		if seg != "" {
			ext = seg
		}
	}
	return ext
}
