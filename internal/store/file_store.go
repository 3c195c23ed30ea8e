package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements Store with one JSON file per game
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Save writes the document to a temp file and renames it into place so a
// reader never sees a partial write.
func (fs *FileStore) Save(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	jsonData, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game document: %w", err)
	}

	filePath := fs.getFilePath(rec.ID)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write game document: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace game document: %w", err)
	}

	return nil
}

func (fs *FileStore) Load(id string) (Record, error) {
	jsonData, err := os.ReadFile(fs.getFilePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read game document: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(jsonData, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal game document: %w", err)
	}
	return rec, nil
}

func (fs *FileStore) Delete(id string) error {
	if !fs.Exists(id) {
		return ErrNotFound
	}

	if err := os.Remove(fs.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove game document: %w", err)
	}

	return nil
}

func (fs *FileStore) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}

func (fs *FileStore) Exists(id string) bool {
	_, err := os.Stat(fs.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a game ID
func (fs *FileStore) getFilePath(id string) string {
	return filepath.Join(fs.dir, filepath.Base(id)+".json")
}
