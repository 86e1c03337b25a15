package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rogeriocsilva/kompletionist/models"
)

const (
	tmdbAPIBase   = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
)

// tmdbProvider fetches movie details from TMDb. Auth is a query-string API
// key; posters come from the TMDb image CDN, unauthenticated.
type tmdbProvider struct {
	apiKey    string
	apiBase   string
	imageBase string
}

func newTMDBProvider(apiKey string) *tmdbProvider {
	return &tmdbProvider{
		apiKey:    apiKey,
		apiBase:   tmdbAPIBase,
		imageBase: tmdbImageBase,
	}
}

func (p *tmdbProvider) kind() models.MediaKind { return models.KindMovie }

func (p *tmdbProvider) buildRequest(ctx context.Context, id string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/movie/%s?api_key=%s&language=en-US", p.apiBase, url.PathEscape(id), url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (p *tmdbProvider) extractImageRef(doc map[string]any) string {
	ref, _ := doc["poster_path"].(string)
	return ref
}

func (p *tmdbProvider) imageRequest(ctx context.Context, ref string) (*http.Request, error) {
	u := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		u = p.imageBase + ref
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
}

func (p *tmdbProvider) unauthorized() {
	// Query-string keys have no refresh path; a 401 here means a bad key
	// and stays a soft failure.
}
