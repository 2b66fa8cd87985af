package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// frontMatter is the optional YAML block at the top of a knowledge document
type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// LoadDirectory scans dir for markdown files and upserts each into the
// store. Missing directory is not an error - the knowledge base simply
// starts empty. Returns the number of documents loaded.
func LoadDirectory(ctx context.Context, dir string, store interfaces.DocumentStore, logger arbor.ILogger) (int, error) {
	if dir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("dir", dir).Msg("Knowledge docs directory does not exist, skipping load")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read docs directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read knowledge document")
			continue
		}

		doc := ParseDocument(entry.Name(), string(data))
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}

		if err := store.StoreDocument(ctx, doc); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to store knowledge document")
			continue
		}
		loaded++
	}

	logger.Info().Str("dir", dir).Int("count", loaded).Msg("Knowledge documents loaded")
	return loaded, nil
}

// ParseDocument builds a KBDocument from a markdown file, splitting off an
// optional YAML front-matter block. Title falls back to the first heading,
// then to the filename.
func ParseDocument(filename, raw string) *models.KBDocument {
	doc := &models.KBDocument{
		Source:  filename,
		Content: raw,
	}

	body := raw
	if strings.HasPrefix(raw, "---\n") {
		if end := strings.Index(raw[4:], "\n---"); end >= 0 {
			var fm frontMatter
			if err := yaml.Unmarshal([]byte(raw[4:4+end]), &fm); err == nil {
				doc.Title = fm.Title
				doc.Tags = fm.Tags
				body = raw[4+end+4:]
				body = strings.TrimPrefix(body, "\n")
			}
		}
	}
	doc.Content = body

	if doc.Title == "" {
		for _, line := range strings.Split(body, "\n") {
			if strings.HasPrefix(line, "# ") {
				doc.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
				break
			}
		}
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	return doc
}
