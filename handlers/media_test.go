package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/rogeriocsilva/kompletionist/internal/database"
	"github.com/rogeriocsilva/kompletionist/models"
)

func setupTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := database.NewMediaRepository(db.Connection())
	if err := repo.UpsertSeed(models.KindMovie, map[string]models.SeedRecord{
		"603": {Title: "The Matrix", Categories: []string{"Action"}},
		"604": {Title: "The Matrix Reloaded", Categories: []string{"Action"}},
		"194": {Title: "Amélie", Categories: []string{"Romance"}},
	}); err != nil {
		t.Fatalf("seed movies failed: %v", err)
	}
	if err := repo.UpsertSeed(models.KindShow, map[string]models.SeedRecord{
		"81189": {Title: "Breaking Bad", Categories: []string{"Drama"}},
	}); err != nil {
		t.Fatalf("seed shows failed: %v", err)
	}

	media := NewMediaHandler(repo)
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", media.Search).Methods(http.MethodGet)
	api.HandleFunc("/movies", media.GetMovies).Methods(http.MethodGet)
	api.HandleFunc("/shows", media.GetShows).Methods(http.MethodGet)
	api.HandleFunc("/categories/", media.GetCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{name}", media.GetCategory).Methods(http.MethodGet)
	return router
}

func doRequest(t *testing.T, router *mux.Router, url string) (*httptest.ResponseRecorder, models.Page) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var page models.Page
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("response is not a page envelope: %v", err)
		}
	}
	return rec, page
}

func TestGetMovies_Envelope(t *testing.T) {
	router := setupTestRouter(t)

	rec, page := doRequest(t, router, "/api/movies?page=1&page_size=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 total pages, got %d", page.TotalPages)
	}
	if page.Page != 1 || page.PageSize != 2 {
		t.Errorf("unexpected paging echo: page=%d page_size=%d", page.Page, page.PageSize)
	}
	items, ok := page.Data.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items on page 1, got %v", page.Data)
	}
	first := items[0].(map[string]any)
	if first["type"] != "movie" {
		t.Errorf("expected type movie, got %v", first["type"])
	}
	if _, hasDetails := first["details"]; !hasDetails {
		t.Error("expected a details field, null until enriched")
	}
}

func TestGetShows(t *testing.T) {
	router := setupTestRouter(t)

	rec, page := doRequest(t, router, "/api/shows")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 1 {
		t.Errorf("expected total 1, got %d", page.Total)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	router := setupTestRouter(t)

	rec, _ := doRequest(t, router, "/api/search")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", rec.Code)
	}
}

func TestSearch_MatchesAcrossKinds(t *testing.T) {
	router := setupTestRouter(t)

	rec, page := doRequest(t, router, "/api/search?query=matrix")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 matrix movies, got %d", page.Total)
	}

	rec, page = doRequest(t, router, "/api/search?query=amelie")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 1 {
		t.Errorf("expected folded match for Amélie, got total %d", page.Total)
	}
}

func TestGetCategories(t *testing.T) {
	router := setupTestRouter(t)

	rec, page := doRequest(t, router, "/api/categories/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 3 {
		t.Errorf("expected 3 categories, got %d", page.Total)
	}
	names, ok := page.Data.([]any)
	if !ok || len(names) != 3 {
		t.Fatalf("expected 3 names, got %v", page.Data)
	}
	if names[0] != "Action" || names[2] != "Romance" {
		t.Errorf("expected lexicographic order, got %v", names)
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	router := setupTestRouter(t)

	rec, _ := doRequest(t, router, "/api/categories/Nonexistent")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty category, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestGetCategory_MoviesThenShows(t *testing.T) {
	router := setupTestRouter(t)

	rec, page := doRequest(t, router, "/api/categories/Action")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 items in Action, got %d", page.Total)
	}
}

func TestParsePagination_Bounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/movies?page=0&page_size=500", nil)
	page, pageSize := parsePagination(req)
	if page != 1 {
		t.Errorf("page below 1 should clamp to 1, got %d", page)
	}
	if pageSize != maxPageSize {
		t.Errorf("page_size should cap at %d, got %d", maxPageSize, pageSize)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	page, pageSize = parsePagination(req)
	if page != 1 || pageSize != defaultPageSize {
		t.Errorf("expected defaults, got page=%d page_size=%d", page, pageSize)
	}
}
