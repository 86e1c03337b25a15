package posters

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/rogeriocsilva/kompletionist/models"
)

// PublicPrefix is the URL prefix under which cached posters are served.
const PublicPrefix = "/images"

const maxPosterBytes = 10 << 20

// RequestBuilder prepares the download request for a poster reference. The
// catalog provider supplies it, composing the image base URL for relative
// refs and attaching auth headers where the image host needs them.
type RequestBuilder func(ctx context.Context, ref string) (*http.Request, error)

// Cache stores posters as flat files named {kind}_{id}.{ext}. Presence of
// the file is the only cache index: a poster is downloaded at most once per
// id, ever, and never invalidated.
type Cache struct {
	dir   string
	httpc *http.Client
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, httpc *http.Client) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster cache dir: %w", err)
	}
	return &Cache{dir: dir, httpc: httpc}, nil
}

// Dir returns the cache directory, for static serving.
func (c *Cache) Dir() string {
	return c.dir
}

// Ensure returns the public path for the poster of (kind, id), downloading
// it on first sight. Every failure is soft: the empty string means no
// poster, and a later run may try again since nothing was written.
func (c *Cache) Ensure(ctx context.Context, kind models.MediaKind, id, ref string, build RequestBuilder) string {
	if ref == "" {
		return ""
	}

	filename := fmt.Sprintf("%s_%s%s", kind, id, extensionOf(ref))
	local := filepath.Join(c.dir, filename)
	public := PublicPrefix + "/" + filename

	if _, err := os.Stat(local); err == nil {
		return public
	}

	req, err := build(ctx, ref)
	if err != nil {
		log.Printf("[posters] bad image request kind=%s id=%s ref=%q err=%v", kind, id, ref, err)
		return ""
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("[posters] download failed kind=%s id=%s err=%v", kind, id, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[posters] download failed kind=%s id=%s status=%s", kind, id, resp.Status)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
	if err != nil {
		log.Printf("[posters] read failed kind=%s id=%s err=%v", kind, id, err)
		return ""
	}

	// Image hosts answer errors with HTML bodies and a 200 often enough
	// that the bytes get sniffed before anything is written.
	if detected := mimetype.Detect(body); !strings.HasPrefix(detected.String(), "image/") {
		log.Printf("[posters] not an image kind=%s id=%s detected=%s", kind, id, detected.String())
		return ""
	}

	if err := os.WriteFile(local, body, 0o644); err != nil {
		log.Printf("[posters] write failed path=%s err=%v", local, err)
		return ""
	}

	return public
}

// extensionOf derives the cache file extension from the source reference,
// defaulting to .jpg when the reference carries none.
func extensionOf(ref string) string {
	candidate := ref
	if parsed, err := url.Parse(ref); err == nil && parsed.Path != "" {
		candidate = parsed.Path
	}
	if ext := path.Ext(candidate); ext != "" {
		return ext
	}
	return ".jpg"
}
