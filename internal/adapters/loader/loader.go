// Package loader provides knowledge collection loading adapters.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
)

// ErrUnsupportedFormat is returned for a file extension no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported knowledge format")

// JSONLoader loads a JSON array of {"title", "content"} objects.
type JSONLoader struct{}

// NewJSONLoader creates a new JSON knowledge loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load reads the knowledge entries from path, in file order.
func (l *JSONLoader) Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []entities.KnowledgeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse knowledge file %s", path)
	}
	return entries, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *JSONLoader) SupportedExtensions() []string {
	return []string{".json"}
}

// YAMLLoader loads a YAML sequence of title/content mappings.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML knowledge loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load reads the knowledge entries from path, in file order.
func (l *YAMLLoader) Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []entities.KnowledgeEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse knowledge file %s", path)
	}
	return entries, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *YAMLLoader) SupportedExtensions() []string {
	return []string{".yaml", ".yml"}
}

// MarkdownLoader loads one entry per "## " heading.
// The heading text is the title and the body up to the next heading is the content.
// Text before the first "## " heading is ignored.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new Markdown knowledge loader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads the knowledge entries from path, in file order.
func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var (
		entries []entities.KnowledgeEntry
		current *entities.KnowledgeEntry
		body    strings.Builder
	)
	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			entries = append(entries, *current)
		}
		body.Reset()
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if title, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			current = &entities.KnowledgeEntry{Title: strings.TrimSpace(title)}
			continue
		}
		if current != nil {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to scan knowledge file %s", path)
	}
	flush()

	return entries, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *MarkdownLoader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders map[string]ports.KnowledgeLoader
}

// NewMultiLoader creates a loader that handles every knowledge format.
func NewMultiLoader() *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.KnowledgeLoader)}
	for _, l := range []ports.KnowledgeLoader{NewJSONLoader(), NewYAMLLoader(), NewMarkdownLoader()} {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[ext] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) ([]entities.KnowledgeEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read knowledge file %s", path)
	}
	return data, nil
}
