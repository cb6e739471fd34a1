// Package blob stores generated illustrations on local disk and re-hosts
// provider-served images so chapter records never point at expiring URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// PublicPrefix is the URL path under which stored images are served.
const PublicPrefix = "/images"

// maxImageBytes bounds a single downloaded illustration.
const maxImageBytes = 20 << 20

// Store writes image blobs under dir and maps them to public URL paths.
type Store struct {
	dir    string
	client *http.Client
}

// NewStore creates the blob directory if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "images")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create image directory %q", dir)
	}
	return &Store{
		dir:    dir,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Dir returns the on-disk directory images are served from.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under name and returns the public URL path.
func (s *Store) Save(name string, data []byte) (string, error) {
	name = sanitizeName(name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", errors.Wrapf(err, "failed to write image %q", name)
	}
	return PublicPrefix + "/" + name, nil
}

// Rehost downloads a provider-hosted image and stores it locally under
// base plus the extension matching the response content type. On any
// failure the original URL is returned so the caller still has a usable,
// if short-lived, image reference.
func (s *Store) Rehost(ctx context.Context, url, base string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("image rehost skipped, bad request", "error", err)
		return url
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("image rehost failed, keeping provider url", "error", err)
		return url
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("image rehost failed, keeping provider url", "status", resp.StatusCode)
		return url
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		slog.Warn("image rehost failed, keeping provider url", "error", err)
		return url
	}

	publicURL, err := s.Save(base+ExtensionFor(resp.Header.Get("Content-Type")), data)
	if err != nil {
		slog.Warn("image rehost failed, keeping provider url", "error", err)
		return url
	}
	return publicURL
}

// ChapterImageName builds a collision-free base name, without extension,
// for a chapter illustration. The timestamp keeps regenerated images from
// being served from stale browser caches.
func ChapterImageName(projectID string, chapterNumber int) string {
	return fmt.Sprintf("chapter-%s-%d-%d", projectID, chapterNumber, time.Now().UnixMilli())
}

// ExtensionFor maps an image content type to a file extension. Unknown or
// empty types fall back to .png.
func ExtensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".png"
	}
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, "..", "")
}
