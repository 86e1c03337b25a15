package models

import "encoding/json"

// MediaKind selects the remote catalog and credential path for an item.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindShow  MediaKind = "show"
)

// Table returns the sqlite table backing this kind.
func (k MediaKind) Table() string {
	if k == KindShow {
		return "shows"
	}
	return "movies"
}

// SeedRecord is a manifest entry before enrichment: the external id, its
// display title, and every category it appeared under (insertion order,
// no duplicates).
type SeedRecord struct {
	Title      string
	Categories []string
}

// MediaItem is a stored movie or show as served by the read API. Details is
// the raw enrichment document from the remote catalog; null until the
// enrichment pipeline has processed the id.
type MediaItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Categories []string        `json:"categories"`
	Details    json.RawMessage `json:"details"`
	Type       MediaKind       `json:"type"`
}

// Page is the envelope shared by every paginated endpoint.
type Page struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TotalPages computes ceil(total/pageSize) for a pagination envelope.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
