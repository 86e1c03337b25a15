package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/rogeriocsilva/kompletionist/models"
)

const (
	tvdbAPIBase     = "https://api4.thetvdb.com/v4"
	tvdbArtworkBase = "https://artworks.thetvdb.com"

	loginAttempts  = 3
	loginBaseDelay = 4 * time.Second
	loginMaxDelay  = 10 * time.Second
)

// ErrAuthentication is returned when a bearer token cannot be acquired from
// the TVDb login endpoint after retries.
var ErrAuthentication = errors.New("tvdb authentication failed")

// tvdbProvider fetches show details from TVDb v4. Auth is a short-lived
// bearer token obtained from the login endpoint and held in a TokenCache;
// the artwork host requires the same token.
type tvdbProvider struct {
	apiKey      string
	pin         string
	tokens      *TokenCache
	httpc       *http.Client
	apiBase     string
	artworkBase string

	loginDelay    time.Duration
	loginMaxDelay time.Duration
}

func newTVDBProvider(apiKey, pin string, tokens *TokenCache, httpc *http.Client) *tvdbProvider {
	return &tvdbProvider{
		apiKey:      apiKey,
		pin:         pin,
		tokens:      tokens,
		httpc:       httpc,
		apiBase:     tvdbAPIBase,
		artworkBase: tvdbArtworkBase,

		loginDelay:    loginBaseDelay,
		loginMaxDelay: loginMaxDelay,
	}
}

func (p *tvdbProvider) kind() models.MediaKind { return models.KindShow }

func (p *tvdbProvider) buildRequest(ctx context.Context, id string) (*http.Request, error) {
	token, err := p.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/series/%s", p.apiBase, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// extractImageRef reads data.image from a v4 series response.
func (p *tvdbProvider) extractImageRef(doc map[string]any) string {
	data, _ := doc["data"].(map[string]any)
	if data == nil {
		return ""
	}
	ref, _ := data["image"].(string)
	return ref
}

func (p *tvdbProvider) imageRequest(ctx context.Context, ref string) (*http.Request, error) {
	u := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if !strings.HasPrefix(ref, "/") {
			ref = "/" + ref
		}
		u = p.artworkBase + ref
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if token, ok := p.tokens.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (p *tvdbProvider) unauthorized() {
	log.Printf("[tvdb] 401 despite cached token, invalidating")
	p.tokens.Invalidate()
}

// ensureToken returns the cached bearer token, logging in when the cache is
// absent or expired. Login is retried with exponential backoff before the
// failure surfaces as ErrAuthentication.
func (p *tvdbProvider) ensureToken(ctx context.Context) (string, error) {
	if token, ok := p.tokens.Get(); ok {
		return token, nil
	}

	token, err := retry.DoWithData(
		func() (string, error) { return p.login(ctx) },
		retry.Context(ctx),
		retry.Attempts(loginAttempts),
		retry.Delay(p.loginDelay),
		retry.MaxDelay(p.loginMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Printf("[tvdb] login attempt %d/%d failed err=%v", attempt+1, loginAttempts, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	p.tokens.Set(token, DefaultTokenTTL)
	return token, nil
}

func (p *tvdbProvider) login(ctx context.Context) (string, error) {
	payload := map[string]string{"apikey": p.apiKey}
	if p.pin != "" {
		payload["pin"] = p.pin
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}

	var decoded struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Data.Token == "" {
		return "", errors.New("no token in login response")
	}
	return decoded.Data.Token, nil
}
