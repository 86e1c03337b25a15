package manifest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogeriocsilva/kompletionist/models"
)

func writeManifest(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestParse_ClassifiesByMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/data/action.yaml", `
Action:
  Movies Missing (TMDb IDs):
    "603": The Matrix
  Shows Missing (TVDb IDs):
    "81189": Breaking Bad
  Notes:
    whatever: ignored
`)

	movies, shows := NewParser(fs).Parse("/data")

	require.Len(t, movies, 1)
	require.Len(t, shows, 1)
	assert.Equal(t, models.SeedRecord{Title: "The Matrix", Categories: []string{"Action"}}, movies["603"])
	assert.Equal(t, models.SeedRecord{Title: "Breaking Bad", Categories: []string{"Action"}}, shows["81189"])
}

func TestParse_UnquotedIntegerIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/data/list.yml", `
Classics:
  Movies Missing (TMDb IDs):
    603: The Matrix
`)

	movies, _ := NewParser(fs).Parse("/data")

	require.Contains(t, movies, "603")
	assert.Equal(t, "The Matrix", movies["603"].Title)
}

func TestParse_AccumulatesCategoriesAcrossFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/data/a.yaml", `
Action:
  Movies Missing (TMDb IDs):
    "603": The Matrix
`)
	writeManifest(t, fs, "/data/nested/b.yaml", `
Sci-Fi:
  Movies Missing (TMDb IDs):
    "603": The Matrix
`)
	writeManifest(t, fs, "/data/c.yaml", `
Action:
  More Movies (TMDb IDs):
    "603": The Matrix
`)

	movies, _ := NewParser(fs).Parse("/data")

	require.Len(t, movies, 1)
	assert.ElementsMatch(t, []string{"Action", "Sci-Fi"}, movies["603"].Categories)
}

func TestParse_MalformedFileIsSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/data/bad.yaml", "category: [unclosed")
	writeManifest(t, fs, "/data/good.yaml", `
Drama:
  Shows Missing (TVDb IDs):
    "73739": Lost
`)

	movies, shows := NewParser(fs).Parse("/data")

	assert.Empty(t, movies)
	require.Len(t, shows, 1)
	assert.Equal(t, "Lost", shows["73739"].Title)
}

func TestParse_NonDirectoryRoot(t *testing.T) {
	fs := afero.NewMemMapFs()

	movies, shows := NewParser(fs).Parse("/missing")

	assert.Empty(t, movies)
	assert.Empty(t, shows)
	assert.NotNil(t, movies)
	assert.NotNil(t, shows)
}

func TestParse_IgnoresNonYAMLAndNonStringTitles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/data/readme.txt", "not a manifest")
	writeManifest(t, fs, "/data/list.yaml", `
Mixed:
  Movies Missing (TMDb IDs):
    "603": The Matrix
    "604": 42
`)

	movies, _ := NewParser(fs).Parse("/data")

	require.Len(t, movies, 1)
	require.Contains(t, movies, "603")
}
