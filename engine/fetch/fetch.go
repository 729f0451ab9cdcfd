// Package fetch retrieves web pages and extracts their visible text for
// knowledge ingestion and indexing.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Page is the extracted content of a fetched URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Client fetches pages over HTTP with a bounded timeout.
type Client struct {
	http *http.Client
}

// New creates a fetch client. timeout <= 0 defaults to 10 seconds.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

var whitespace = regexp.MustCompile(`\s+`)

// Fetch downloads the URL and returns its title and visible text with
// script, style and noscript subtrees removed and whitespace collapsed.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: parse html: %w", url, err)
	}

	var title string
	var parts []string
	collectText(root, &title, &parts)

	content := strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(parts, " "), " "))
	return &Page{URL: url, Title: strings.TrimSpace(title), Content: content}, nil
}

func collectText(n *html.Node, title *string, parts *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "title":
			if *title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				*title = n.FirstChild.Data
			}
			return
		}
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, title, parts)
	}
}
