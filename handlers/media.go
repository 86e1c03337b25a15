package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rogeriocsilva/kompletionist/internal/database"
	"github.com/rogeriocsilva/kompletionist/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// MediaHandler serves the read API over the catalog store.
type MediaHandler struct {
	Repo *database.MediaRepository
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(repo *database.MediaRepository) *MediaHandler {
	return &MediaHandler{Repo: repo}
}

// GetMovies returns one page of stored movies.
func (h *MediaHandler) GetMovies(w http.ResponseWriter, r *http.Request) {
	h.paginated(w, r, models.KindMovie)
}

// GetShows returns one page of stored shows.
func (h *MediaHandler) GetShows(w http.ResponseWriter, r *http.Request) {
	h.paginated(w, r, models.KindShow)
}

func (h *MediaHandler) paginated(w http.ResponseWriter, r *http.Request, kind models.MediaKind) {
	page, pageSize := parsePagination(r)
	items, total, err := h.Repo.Paginate(kind, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list "+string(kind)+"s")
		return
	}
	writePage(w, items, page, pageSize, total)
}

// Search returns items of both kinds whose title matches the query.
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	page, pageSize := parsePagination(r)
	items, total, err := h.Repo.Search(query, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writePage(w, items, page, pageSize, total)
}

// GetCategories returns one page of the distinct category names.
func (h *MediaHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	names, total, err := h.Repo.ListCategories(page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writePage(w, names, page, pageSize, total)
}

// GetCategory returns the media filed under one category, movies first.
// A category with zero matches across both kinds is a 404, not an empty page.
func (h *MediaHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	page, pageSize := parsePagination(r)

	items, total, err := h.Repo.ListByCategory(name, page, pageSize)
	if errors.Is(err, database.ErrCategoryNotFound) {
		writeError(w, http.StatusNotFound, "category not found or empty")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list category")
		return
	}
	writePage(w, items, page, pageSize, total)
}

// parsePagination reads page/page_size query params with the API defaults:
// page ≥ 1 (default 1), 1 ≤ page_size ≤ 100 (default 10).
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			page = parsed
		}
	}

	pageSize = defaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			pageSize = parsed
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func writePage(w http.ResponseWriter, data any, page, pageSize, total int) {
	writeJSON(w, http.StatusOK, models.Page{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: models.TotalPages(total, pageSize),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
