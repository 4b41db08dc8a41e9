package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 5 * 1024 * 1024
	// DefaultMaxText bounds the text kept from a page
	DefaultMaxText = 2000
)

// Page is the readable content of a fetched document
type Page struct {
	URL   string
	Title string
	Text  string
}

// Description renders the page as problem description text
func (p *Page) Description() string {
	if p.Title == "" {
		return p.Text + "\n\nSumber: " + p.URL
	}
	return p.Title + "\n\n" + p.Text + "\n\nSumber: " + p.URL
}

// Fetcher downloads web pages (vendor knowledge base articles, forum
// threads) and extracts their readable text.
type Fetcher struct {
	Client  *http.Client
	MaxText int
}

// New creates a Fetcher with a 30s timeout
func New() *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: defaultTimeout},
		MaxText: DefaultMaxText,
	}
}

// Fetch retrieves rawURL and extracts its title and text
func (f *Fetcher) Fetch(rawURL string) (*Page, error) {
	u, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "diag/1.0 (hardware-problem-log)")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		URL:   u,
		Title: clip(collapse(findTitle(doc)), 200),
		Text:  clip(extractText(doc), f.MaxText),
	}
	if page.Text == "" {
		return nil, fmt.Errorf("no text content found")
	}

	return page, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}
	return u.String(), nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return n.FirstChild.Data
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// Tags to skip (non-content)
var skipTags = map[string]bool{
	"head": true, "script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "form": true,
}

// extractText walks the document body and joins its text nodes
func extractText(doc *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapse(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clip shortens s to at most max bytes, cutting at a word boundary when
// there is one and never inside a multibyte rune
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:runeBoundary(s, max-3)]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// runeBoundary steps n back until s[:n] ends on a complete rune
func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
