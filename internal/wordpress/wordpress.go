// Package wordpress publishes articles through the WordPress REST API using
// application-password authentication.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"contentforge/internal/core"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	apiPrefix      = "/wp-json/wp/v2"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 64 << 10
)

// Post statuses accepted by WordPress.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusPending = "pending"
)

var (
	// ErrMissingCredentials is returned when the site URL, user or
	// application password is empty.
	ErrMissingCredentials = errors.New("wordpress URL, username and application password are required")
	// ErrInvalidStatus is returned for an unknown post status.
	ErrInvalidStatus = errors.New("post status must be draft, publish or pending")
)

// Site identifies a WordPress installation and its credentials.
type Site struct {
	URL         string
	Username    string
	AppPassword string
}

// Client talks to one WordPress site.
type Client struct {
	site       Site
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient validates site and creates a client. A nil httpClient uses a
// 60 second timeout.
func NewClient(site Site, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	site.URL = strings.TrimSpace(site.URL)
	if site.URL == "" || site.Username == "" || site.AppPassword == "" {
		return nil, ErrMissingCredentials
	}
	u, err := url.Parse(site.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, core.NewValidationError("url", fmt.Sprintf("invalid WordPress URL %q", site.URL))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		site:       site,
		baseURL:    strings.TrimRight(site.URL, "/") + apiPrefix,
		httpClient: httpClient,
		log:        log.With().Str("component", "wordpress").Str("site", site.URL).Logger(),
	}, nil
}

// YoastMeta carries the Yoast SEO fields of a post.
type YoastMeta struct {
	Title        string `json:"_yoast_wpseo_title,omitempty"`
	MetaDesc     string `json:"_yoast_wpseo_metadesc,omitempty"`
	FocusKeyword string `json:"_yoast_wpseo_focuskw,omitempty"`
}

// Post is the body of a create-post request.
type Post struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Slug          string     `json:"slug,omitempty"`
	Categories    []int      `json:"categories,omitempty"`
	Tags          []int      `json:"tags,omitempty"`
	FeaturedMedia int        `json:"featured_media,omitempty"`
	Meta          *YoastMeta `json:"meta,omitempty"`
}

// PostResponse is the subset of the created post we use.
type PostResponse struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
	Title  struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

// Media is an uploaded attachment.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// Term is a category or tag.
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// User is the authenticated account.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TestConnection checks the credentials against /users/me.
func (c *Client) TestConnection(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePost creates a post and returns the stored version.
func (c *Client) CreatePost(ctx context.Context, post Post) (*PostResponse, error) {
	if post.Status == "" {
		post.Status = StatusDraft
	}
	if err := ValidateStatus(post.Status); err != nil {
		return nil, err
	}

	body, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("failed to encode post: %w", err)
	}

	var resp PostResponse
	if err := c.do(ctx, http.MethodPost, "/posts", bytes.NewReader(body), "application/json", &resp); err != nil {
		return nil, err
	}
	c.log.Info().Int("post_id", resp.ID).Str("status", resp.Status).Msg("post created")
	return &resp, nil
}

// UploadMedia uploads one file as a multipart form. altText is optional.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte, mimeType, altText string) (*Media, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if altText != "" {
		if err := writer.WriteField("alt_text", altText); err != nil {
			return nil, fmt.Errorf("failed to write alt text: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	var media Media
	if err := c.do(ctx, http.MethodPost, "/media", &body, writer.FormDataContentType(), &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// Categories lists up to 100 categories.
func (c *Client) Categories(ctx context.Context) ([]Term, error) {
	return c.terms(ctx, "/categories")
}

// Tags lists up to 100 tags.
func (c *Client) Tags(ctx context.Context) ([]Term, error) {
	return c.terms(ctx, "/tags")
}

func (c *Client) terms(ctx context.Context, path string) ([]Term, error) {
	var terms []Term
	if err := c.do(ctx, http.MethodGet, path+"?per_page=100", nil, "", &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.site.Username, c.site.AppPassword)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.ProviderError{Provider: "wordpress", Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if code := gjson.GetBytes(raw, "code").String(); code != "" {
			msg = code + ": " + msg
		}
		return &core.ProviderError{Provider: "wordpress", StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode WordPress response: %w", err)
	}
	return nil
}

// ValidateStatus checks a post status.
func ValidateStatus(status string) error {
	switch status {
	case StatusDraft, StatusPublish, StatusPending:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}
