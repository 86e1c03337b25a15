package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/rogeriocsilva/kompletionist/models"
)

// ErrCategoryNotFound is returned when a category lookup matches nothing
// across both kinds.
var ErrCategoryNotFound = errors.New("category not found")

// MediaRepository persists parsed and enriched movies and shows.
type MediaRepository struct {
	conn *sql.DB
}

// NewMediaRepository creates a repository over an open database connection.
func NewMediaRepository(conn *sql.DB) *MediaRepository {
	return &MediaRepository{conn: conn}
}

// UpsertSeed inserts or refreshes the parsed rows for one kind. Title and
// categories are overwritten; details is left untouched so a re-parse never
// erases previously fetched enrichment. Running twice with identical input
// yields identical state.
func (r *MediaRepository) UpsertSeed(kind models.MediaKind, records map[string]models.SeedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, categories) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, categories = excluded.categories`,
		kind.Table())

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare seed upsert: %w", err)
	}
	defer stmt.Close()

	for id, record := range records {
		categories, err := json.Marshal(record.Categories)
		if err != nil {
			return fmt.Errorf("marshal categories for %s: %w", id, err)
		}
		if _, err := stmt.Exec(id, record.Title, string(categories)); err != nil {
			return fmt.Errorf("upsert %s %s: %w", kind, id, err)
		}
	}

	return tx.Commit()
}

// ListPending returns the ids of one kind still missing enrichment details.
func (r *MediaRepository) ListPending(kind models.MediaKind) ([]string, error) {
	rows, err := r.conn.Query(fmt.Sprintf("SELECT id FROM %s WHERE details IS NULL", kind.Table()))
	if err != nil {
		return nil, fmt.Errorf("list pending %s: %w", kind, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// WriteDetails stores the enrichment document for an existing row. Absent
// ids and empty documents are no-ops; details is never reset to null here,
// so enrichment is monotonic.
func (r *MediaRepository) WriteDetails(kind models.MediaKind, id string, details []byte) error {
	if len(details) == 0 {
		return nil
	}
	_, err := r.conn.Exec(
		fmt.Sprintf("UPDATE %s SET details = ? WHERE id = ?", kind.Table()),
		string(details), id)
	if err != nil {
		return fmt.Errorf("write details %s %s: %w", kind, id, err)
	}
	return nil
}

// Paginate returns one stable-ordered page of a kind (title order,
// id as tiebreak) plus the unpaginated total.
func (r *MediaRepository) Paginate(kind models.MediaKind, page, pageSize int) ([]models.MediaItem, int, error) {
	var total int
	if err := r.conn.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", kind.Table())).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", kind, err)
	}

	query := fmt.Sprintf(`
		SELECT id, title, categories, details FROM %s
		ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`, kind.Table())
	rows, err := r.conn.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("paginate %s: %w", kind, err)
	}
	defer rows.Close()

	items, err := scanItems(rows, kind)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search returns items of both kinds whose title contains the query,
// movies first. Matching is case-insensitive and diacritic-folded: both
// sides are ASCII-transliterated and lowercased before the substring test,
// so "amelie" finds "Amélie".
func (r *MediaRepository) Search(query string, page, pageSize int) ([]models.MediaItem, int, error) {
	needle := foldTitle(query)

	var matches []models.MediaItem
	for _, kind := range []models.MediaKind{models.KindMovie, models.KindShow} {
		items, err := r.listAll(kind)
		if err != nil {
			return nil, 0, err
		}
		for _, item := range items {
			if strings.Contains(foldTitle(item.Title), needle) {
				matches = append(matches, item)
			}
		}
	}

	total := len(matches)
	return pageSlice(matches, page, pageSize), total, nil
}

// ListCategories returns one page of the distinct category names across both
// kinds, sorted lexicographically.
func (r *MediaRepository) ListCategories(page, pageSize int) ([]string, int, error) {
	rows, err := r.conn.Query(`
		SELECT DISTINCT json_each.value FROM movies, json_each(movies.categories)
		UNION
		SELECT DISTINCT json_each.value FROM shows, json_each(shows.categories)
		ORDER BY 1`)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, 0, err
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total := len(categories)
	return pageSlice(categories, page, pageSize), total, nil
}

// ListByCategory returns one page of the movies and shows filed under the
// named category, movies first. Returns ErrCategoryNotFound when the
// category matches nothing in either kind.
func (r *MediaRepository) ListByCategory(name string, page, pageSize int) ([]models.MediaItem, int, error) {
	var matches []models.MediaItem
	for _, kind := range []models.MediaKind{models.KindMovie, models.KindShow} {
		query := fmt.Sprintf(`
			SELECT id, title, categories, details FROM %s
			WHERE EXISTS (SELECT 1 FROM json_each(categories) WHERE json_each.value = ?)
			ORDER BY title COLLATE NOCASE, id`, kind.Table())
		rows, err := r.conn.Query(query, name)
		if err != nil {
			return nil, 0, fmt.Errorf("list %s by category: %w", kind, err)
		}
		items, err := scanItems(rows, kind)
		rows.Close()
		if err != nil {
			return nil, 0, err
		}
		matches = append(matches, items...)
	}

	if len(matches) == 0 {
		return nil, 0, ErrCategoryNotFound
	}

	total := len(matches)
	return pageSlice(matches, page, pageSize), total, nil
}

func (r *MediaRepository) listAll(kind models.MediaKind) ([]models.MediaItem, error) {
	query := fmt.Sprintf(
		"SELECT id, title, categories, details FROM %s ORDER BY title COLLATE NOCASE, id",
		kind.Table())
	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()
	return scanItems(rows, kind)
}

func scanItems(rows *sql.Rows, kind models.MediaKind) ([]models.MediaItem, error) {
	items := []models.MediaItem{}
	for rows.Next() {
		var (
			item       models.MediaItem
			categories string
			details    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &categories, &details); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(categories), &item.Categories); err != nil {
			return nil, fmt.Errorf("decode categories for %s: %w", item.ID, err)
		}
		if details.Valid {
			item.Details = json.RawMessage(details.String)
		}
		item.Type = kind
		items = append(items, item)
	}
	return items, rows.Err()
}

func foldTitle(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

func pageSlice[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) || start < 0 {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
