package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultUserAgent identifies the crawler to the sites it reads.
	DefaultUserAgent = "Mozilla/5.0 (compatible; ContentForgeBot/1.0)"
	defaultTimeout   = 15 * time.Second
	maxBodyBytes     = 10 << 20
)

// urlRegex is a simple regex to find URLs.
var urlRegex = regexp.MustCompile(`https?://[^\s)\]"'<>]+`)

// Client fetches web pages for competitor analysis and sitemap import.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a client with a per-request timeout. A zero timeout
// uses the package default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// Page is a fetched HTML document.
type Page struct {
	URL string
	Doc *goquery.Document
}

// Get fetches rawURL and returns the body, failing on non-2xx responses.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch URL %s: status code %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}
	return body, nil
}

// FetchPage fetches rawURL and parses it as HTML.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	return &Page{URL: rawURL, Doc: doc}, nil
}

// ExtractTitle returns the page title, trying <title>, og:title and the
// first <h1> in that order.
func ExtractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		return title
	}
	if og, _ := doc.Find("meta[property='og:title']").Attr("content"); strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// MetaDescription returns the description meta tag, falling back to
// og:description.
func MetaDescription(doc *goquery.Document) string {
	if desc, _ := doc.Find("meta[name='description']").Attr("content"); strings.TrimSpace(desc) != "" {
		return strings.TrimSpace(desc)
	}
	og, _ := doc.Find("meta[property='og:description']").Attr("content")
	return strings.TrimSpace(og)
}

// MetaKeywords splits the keywords meta tag on commas.
func MetaKeywords(doc *goquery.Document) []string {
	content, _ := doc.Find("meta[name='keywords']").Attr("content")
	var keywords []string
	for _, k := range strings.Split(content, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

var mainContentSelectors = []string{
	"article", ".post-content", ".entry-content", ".content", "main", ".main-content", "[role='main']",
}

// MainContent strips boilerplate elements from doc and returns the first
// matching article container, or the body when none matches.
func MainContent(doc *goquery.Document) *goquery.Selection {
	doc.Find("script, style, nav, header, footer, aside, form, iframe, noscript, .sidebar, #sidebar, .advertisement, .cookie-banner").Remove()

	for _, selector := range mainContentSelectors {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return doc.Find("body")
}

// ReadURLsFromFile reads http(s) URLs from a text or markdown file, one or
// more per line, dropping duplicates.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open link file %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		for _, textURL := range urlRegex.FindAllString(scanner.Text(), -1) {
			textURL = strings.TrimRight(textURL, ".,;")
			parsed, err := url.ParseRequestURI(textURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				continue
			}
			if seen[textURL] {
				continue
			}
			seen[textURL] = true
			urls = append(urls, textURL)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading link file %s: %w", filePath, err)
	}
	return urls, nil
}
