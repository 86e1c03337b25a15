package manifest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rogeriocsilva/kompletionist/models"
)

// Manifest files are three-level YAML mappings:
//
//	category:
//	  subcategory:
//	    id: title
//
// Only subcategories carrying one of these markers contribute items; the
// marker decides the media kind. Everything else is ignored.
const (
	movieIDMarker = "(TMDb IDs)"
	showIDMarker  = "(TVDb IDs)"
)

// Parser discovers and parses YAML manifests under a root directory. It is a
// pure transformation: no network or database access.
type Parser struct {
	fs afero.Fs
}

// NewParser creates a parser reading from the given filesystem. Production
// callers pass afero.NewOsFs(); tests use an in-memory fs.
func NewParser(fs afero.Fs) *Parser {
	return &Parser{fs: fs}
}

// Parse walks the directory tree rooted at dir and folds every qualifying
// manifest entry into two id-keyed maps, one per kind. Duplicate ids merge:
// the title is overwritten (last parse wins) and the enclosing category is
// appended once. Malformed files are skipped, never fatal. A root that is
// not a directory yields two empty maps.
func (p *Parser) Parse(dir string) (movies, shows map[string]models.SeedRecord) {
	movies = make(map[string]models.SeedRecord)
	shows = make(map[string]models.SeedRecord)

	info, err := p.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		return movies, shows
	}

	err = afero.Walk(p.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
		default:
			return nil
		}

		raw, err := afero.ReadFile(p.fs, path)
		if err != nil {
			log.Printf("[manifest] read failed path=%s err=%v", path, err)
			return nil
		}

		var content map[string]any
		if err := yaml.Unmarshal(raw, &content); err != nil {
			log.Printf("[manifest] skipping malformed file path=%s err=%v", path, err)
			return nil
		}

		p.fold(content, movies, shows)
		return nil
	})
	if err != nil {
		log.Printf("[manifest] walk failed dir=%s err=%v", dir, err)
	}

	return movies, shows
}

func (p *Parser) fold(content map[string]any, movies, shows map[string]models.SeedRecord) {
	for category, subcategories := range content {
		subs := asStringMap(subcategories)
		if subs == nil {
			continue
		}
		for subcategory, items := range subs {
			entries := asStringMap(items)
			if entries == nil {
				continue
			}

			var target map[string]models.SeedRecord
			switch {
			case strings.HasSuffix(subcategory, movieIDMarker):
				target = movies
			case strings.HasSuffix(subcategory, showIDMarker):
				target = shows
			default:
				continue
			}

			for id, title := range entries {
				name, ok := title.(string)
				if !ok || id == "" {
					continue
				}
				record := target[id]
				record.Title = name
				if !slices.Contains(record.Categories, category) {
					record.Categories = append(record.Categories, category)
				}
				target[id] = record
			}
		}
	}
}

// asStringMap normalizes a decoded YAML mapping. Manifest ids are often
// written unquoted, which yaml.v3 decodes as integer keys in a
// map[any]any; those keys are stringified here.
func asStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for key, value := range m {
			out[fmt.Sprint(key)] = value
		}
		return out
	}
	return nil
}
