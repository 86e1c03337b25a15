package metadata

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/rogeriocsilva/kompletionist/models"
	"github.com/rogeriocsilva/kompletionist/services/posters"
)

const (
	// maxConcurrentFetches caps simultaneous outbound requests across both
	// catalogs, posters included, to stay inside third-party rate limits.
	maxConcurrentFetches = 5

	requestTimeout = 30 * time.Second

	maxDetailBytes = 4 << 20
)

// store is the slice of the catalog store the enrichment pass needs.
type store interface {
	ListPending(kind models.MediaKind) ([]string, error)
	WriteDetails(kind models.MediaKind, id string, details []byte) error
}

// Options configures a metadata Service.
type Options struct {
	TMDBAPIKey string
	TVDBAPIKey string
	TVDBPin    string

	// HTTPClient overrides the default 30s-timeout client, for tests.
	HTTPClient *http.Client
}

// Service runs the enrichment pipeline: it drains pending ids from the
// store, fetches detail documents from the matching catalog under the
// shared concurrency gate, caches posters, and writes results back. A pass
// is rerun-safe and strictly additive; any id that soft-fails just stays
// pending for the next run.
type Service struct {
	repo    store
	posters *posters.Cache
	httpc   *http.Client

	movies provider
	shows  provider
	tokens *TokenCache

	ready atomic.Bool
}

// NewService wires the two catalog providers over a shared HTTP client and
// a fresh credential cache.
func NewService(opts Options, repo store, posterCache *posters.Cache) *Service {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}
	tokens := NewTokenCache()
	return &Service{
		repo:    repo,
		posters: posterCache,
		httpc:   httpc,
		movies:  newTMDBProvider(opts.TMDBAPIKey),
		shows:   newTVDBProvider(opts.TVDBAPIKey, opts.TVDBPin, tokens, httpc),
		tokens:  tokens,
	}
}

// Ready reports whether at least one enrichment pass has completed since
// startup. Serving never blocks on this; it only feeds the health endpoint.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

type fetchResult struct {
	kind    models.MediaKind
	id      string
	details []byte
}

// Run executes one full enrichment pass. Individual fetch failures are
// logged and skipped; only store errors can fail the pass itself.
func (s *Service) Run(ctx context.Context) error {
	movieIDs, err := s.repo.ListPending(models.KindMovie)
	if err != nil {
		return err
	}
	showIDs, err := s.repo.ListPending(models.KindShow)
	if err != nil {
		return err
	}

	log.Printf("[enrich] starting pass pendingMovies=%d pendingShows=%d", len(movieIDs), len(showIDs))
	start := time.Now()

	workers := pool.NewWithResults[*fetchResult]().WithMaxGoroutines(maxConcurrentFetches)
	for _, id := range movieIDs {
		workers.Go(func() *fetchResult { return s.fetchOne(ctx, s.movies, id) })
	}
	for _, id := range showIDs {
		workers.Go(func() *fetchResult { return s.fetchOne(ctx, s.shows, id) })
	}
	results := workers.Wait()

	// Write-back is sequential: sqlite wants a single writer, and each
	// result targets a distinct row so order does not matter.
	var written int
	for _, res := range results {
		if res == nil {
			continue
		}
		if err := s.repo.WriteDetails(res.kind, res.id, res.details); err != nil {
			return err
		}
		written++
	}

	s.ready.Store(true)
	log.Printf("[enrich] pass complete enriched=%d failed=%d elapsed=%s",
		written, len(results)-written, time.Since(start).Round(time.Millisecond))
	return nil
}

// fetchOne fetches one detail document. All remote failures are soft: the
// return is nil, the id stays pending, and sibling fetches are unaffected.
func (s *Service) fetchOne(ctx context.Context, prov provider, id string) *fetchResult {
	req, err := prov.buildRequest(ctx, id)
	if err != nil {
		log.Printf("[enrich] request build failed kind=%s id=%s err=%v", prov.kind(), id, err)
		return nil
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		log.Printf("[enrich] fetch failed kind=%s id=%s err=%v", prov.kind(), id, err)
		return nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		prov.unauthorized()
		log.Printf("[enrich] unauthorized kind=%s id=%s, leaving pending", prov.kind(), id)
		return nil
	default:
		log.Printf("[enrich] fetch failed kind=%s id=%s status=%s", prov.kind(), id, resp.Status)
		return nil
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDetailBytes)).Decode(&doc); err != nil {
		log.Printf("[enrich] decode failed kind=%s id=%s err=%v", prov.kind(), id, err)
		return nil
	}

	if ref := prov.extractImageRef(doc); ref != "" {
		if local := s.posters.Ensure(ctx, prov.kind(), id, ref, prov.imageRequest); local != "" {
			doc["cached_poster"] = local
		}
	}

	details, err := json.Marshal(doc)
	if err != nil {
		log.Printf("[enrich] encode failed kind=%s id=%s err=%v", prov.kind(), id, err)
		return nil
	}

	return &fetchResult{kind: prov.kind(), id: id, details: details}
}
