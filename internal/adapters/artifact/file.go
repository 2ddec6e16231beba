// Package artifact persists the embedded knowledge base as a versioned JSON file.
package artifact

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
)

var (
	// ErrUnsupportedVersion is returned for an artifact written in an unknown layout.
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
	// ErrModelMismatch is returned when the artifact was embedded by another model.
	ErrModelMismatch = errors.New("artifact embedding model mismatch")
	// ErrDimensionMismatch is returned when a vector disagrees with the recorded dimensions.
	ErrDimensionMismatch = errors.New("artifact dimension mismatch")
)

// FileStore implements ports.ArtifactStore on a single JSON file.
type FileStore struct {
	path  string
	model string
}

// NewFileStore creates a store at path. When model is non-empty, Load rejects
// artifacts embedded by any other model.
func NewFileStore(path, model string) *FileStore {
	return &FileStore{path: path, model: model}
}

// Path returns the artifact location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the artifact. A missing file yields an empty knowledge base.
func (s *FileStore) Load(ctx context.Context) (*entities.KnowledgeBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Embeddings artifact not found, starting with an empty knowledge base", "path", s.path)
		return &entities.KnowledgeBase{Version: entities.ArtifactVersion, Model: s.model}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read artifact %s", s.path)
	}

	var kb entities.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, errors.Wrapf(err, "failed to parse artifact %s", s.path)
	}
	if err := s.validate(&kb); err != nil {
		return nil, errors.Wrapf(err, "invalid artifact %s", s.path)
	}

	return &kb, nil
}

func (s *FileStore) validate(kb *entities.KnowledgeBase) error {
	if kb.Version != entities.ArtifactVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", kb.Version, entities.ArtifactVersion)
	}
	if s.model != "" && kb.Model != s.model {
		return errors.Wrapf(ErrModelMismatch, "artifact has %q, configured %q", kb.Model, s.model)
	}
	for i, e := range kb.Entries {
		if len(e.Embedding) != kb.Dimensions {
			return errors.Wrapf(ErrDimensionMismatch, "entry %d has %d components, artifact declares %d",
				i, len(e.Embedding), kb.Dimensions)
		}
	}
	return nil
}

// Save writes the knowledge base atomically: readers see the old file or the new one.
func (s *FileStore) Save(ctx context.Context, kb *entities.KnowledgeBase) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode artifact")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write artifact")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync artifact")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close artifact")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "failed to replace artifact %s", s.path)
	}

	slog.Info("Embeddings artifact saved", "path", s.path, "entries", kb.Len(), "model", kb.Model)
	return nil
}
