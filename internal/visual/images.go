// Package visual turns generated image bytes into URLs an article can embed
// and loads them back for upload.
package visual

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentforge/internal/llm"
)

// DefaultMIMEType is assumed when a backend does not label its image.
const DefaultMIMEType = "image/png"

// maxDownloadSize caps remote images fetched by Load.
const maxDownloadSize = 20 << 20

// ErrInvalidDataURI is returned for malformed data: URLs.
var ErrInvalidDataURI = errors.New("invalid data URI")

// Sink stores one generated image and returns the URL to embed.
type Sink interface {
	Store(ctx context.Context, name string, img *llm.Image) (string, error)
}

// DataURISink embeds images inline as base64 data URIs.
type DataURISink struct{}

// Store returns img as a data URI.
func (DataURISink) Store(_ context.Context, _ string, img *llm.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", errors.New("empty image")
	}
	return DataURI(img.MIMEType, img.Data), nil
}

// FileSink writes images under a directory and returns their paths.
type FileSink struct {
	Dir string
}

// Store writes img to Dir/name with an extension derived from its MIME type.
func (s FileSink) Store(_ context.Context, name string, img *llm.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", errors.New("empty image")
	}
	path := filepath.Join(s.Dir, name+ExtensionFor(img.MIMEType))
	if err := SaveImage(img.Data, path); err != nil {
		return "", err
	}
	return path, nil
}

// DataURI encodes data as a base64 data: URL.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data: URL into its bytes and MIME type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, mimeType, nil
}

// SaveImage writes image bytes to outputPath, creating parent directories.
func SaveImage(data []byte, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// ExtensionFor returns the file extension for an image MIME type.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// Loader reads an embedded image back from a data URI, a local path or an
// http(s) URL.
type Loader struct {
	httpClient *http.Client
}

// NewLoader creates a loader. A nil client uses a 30 second timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{httpClient: client}
}

// Load returns the image bytes and MIME type behind src.
func (l *Loader) Load(ctx context.Context, src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return DecodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.download(ctx, src)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image %s: %w", src, err)
		}
		return data, mimeFromName(src), nil
	}
}

func (l *Loader) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil && strings.HasPrefix(mt, "image/") {
		return data, mt, nil
	}
	return data, mimeFromName(imageURL), nil
}

func mimeFromName(name string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); strings.HasPrefix(mt, "image/") {
		return mt
	}
	return DefaultMIMEType
}
