package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"taskmind/internal/logging"
)

// exportDocument is the YAML envelope for a user's task backup.
type exportDocument struct {
	ExportedAt time.Time `yaml:"exported_at"`
	TaskCount  int       `yaml:"task_count"`
	Tasks      []Task    `yaml:"tasks"`
}

// ExportYAML writes all of the user's tasks to w as YAML. Embeddings are not
// exported; they are regenerated on import.
func (s *Store) ExportYAML(ctx context.Context, userID string, w io.Writer) error {
	tasks, err := s.List(ctx, userID, Filter{})
	if err != nil {
		return fmt.Errorf("failed to load tasks for export: %w", err)
	}

	doc := exportDocument{
		ExportedAt: s.now().UTC(),
		TaskCount:  len(tasks),
		Tasks:      tasks,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish export: %w", err)
	}

	logging.Store("Exported %d tasks for user %s", len(tasks), userID)
	return nil
}

// ImportYAML reads a YAML backup and stores its tasks under the given user.
// Tasks whose id already exists are skipped; new tasks get fresh embeddings.
// Returns the number of tasks imported.
func (s *Store) ImportYAML(ctx context.Context, userID string, r io.Reader) (int, error) {
	var doc exportDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("failed to decode import: %w", err)
	}

	imported := 0
	for i := range doc.Tasks {
		t := doc.Tasks[i]
		t.UserID = userID

		if t.ID != "" {
			if _, err := s.Get(ctx, userID, t.ID); err == nil {
				logging.StoreDebug("Import: skipping existing task %s", t.ID)
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return imported, err
			}
		}

		if err := s.Add(ctx, &t); err != nil {
			return imported, fmt.Errorf("failed to import task %d: %w", i, err)
		}
		imported++
	}

	logging.Store("Imported %d tasks for user %s", imported, userID)
	return imported, nil
}
