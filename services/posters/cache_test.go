package posters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogeriocsilva/kompletionist/models"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func plainBuilder(ctx context.Context, ref string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
}

func TestEnsure_DownloadsOnceEver(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cache, err := NewCache(dir, srv.Client())
	require.NoError(t, err)

	ref := srv.URL + "/posters/matrix.jpg"
	first := cache.Ensure(context.Background(), models.KindMovie, "603", ref, plainBuilder)
	assert.Equal(t, "/images/movie_603.jpg", first)

	data, err := os.ReadFile(filepath.Join(dir, "movie_603.jpg"))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)

	second := cache.Ensure(context.Background(), models.KindMovie, "603", ref, plainBuilder)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, hits.Load(), "cache hit must not touch the network")
}

func TestEnsure_PreexistingFileSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "show_81189.png"), jpegBytes, 0o644))

	cache, err := NewCache(dir, http.DefaultClient)
	require.NoError(t, err)

	failing := func(ctx context.Context, ref string) (*http.Request, error) {
		t.Fatal("builder must not be called on a cache hit")
		return nil, nil
	}
	got := cache.Ensure(context.Background(), models.KindShow, "81189", "/banners/lost.png", failing)
	assert.Equal(t, "/images/show_81189.png", got)
}

func TestEnsure_DefaultExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), srv.Client())
	require.NoError(t, err)

	got := cache.Ensure(context.Background(), models.KindMovie, "42", srv.URL+"/no-extension", plainBuilder)
	assert.Equal(t, "/images/movie_42.jpg", got)
}

func TestEnsure_RejectsNonImageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cache, err := NewCache(dir, srv.Client())
	require.NoError(t, err)

	got := cache.Ensure(context.Background(), models.KindMovie, "603", srv.URL+"/x.jpg", plainBuilder)
	assert.Empty(t, got)

	_, err = os.Stat(filepath.Join(dir, "movie_603.jpg"))
	assert.True(t, os.IsNotExist(err), "rejected body must not be written")
}

func TestEnsure_SoftFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), srv.Client())
	require.NoError(t, err)

	assert.Empty(t, cache.Ensure(context.Background(), models.KindMovie, "1", srv.URL+"/gone.jpg", plainBuilder))
	assert.Empty(t, cache.Ensure(context.Background(), models.KindMovie, "2", "", plainBuilder))
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, ".jpg", extensionOf("/abc.jpg"))
	assert.Equal(t, ".png", extensionOf("https://host/banners/x.png?query=1"))
	assert.Equal(t, ".jpg", extensionOf("/no-suffix"))
}
