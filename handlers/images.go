package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// ImagesHandler serves cached poster files from the poster cache directory.
type ImagesHandler struct {
	dir string
}

// NewImagesHandler creates a handler rooted at the poster cache directory.
func NewImagesHandler(dir string) *ImagesHandler {
	return &ImagesHandler{dir: dir}
}

// ServeHTTP serves one poster by filename. Posters are immutable once
// cached, so clients may cache aggressively.
func (h *ImagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]

	// The cache directory is flat; reject anything that is not a bare
	// filename.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, filepath.Join(h.dir, name))
}
