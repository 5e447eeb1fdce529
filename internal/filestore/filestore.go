package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
)

// FileStore keeps uploaded source documents on local disk, one directory per
// assistant, so edited text files can be re-read and re-ingested later.
type FileStore interface {
	Save(assistantID uuid.UUID, fileName string, data []byte) (string, error)
	Read(assistantID uuid.UUID, fileName string) ([]byte, error)
	Remove(assistantID uuid.UUID, fileName string) error
}

type fileStore struct {
	log *logger.Logger
	dir string
}

func NewFileStore(log *logger.Logger, dir string) FileStore {
	return &fileStore{
		log: log.With("component", "FileStore"),
		dir: dir,
	}
}

func (s *fileStore) assistantDir(assistantID uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("assistant_%s", assistantID))
}

// Save writes the file, overwriting any previous upload with the same name.
// The base name is stripped so a crafted filename cannot escape the
// assistant's directory.
func (s *fileStore) Save(assistantID uuid.UUID, fileName string, data []byte) (string, error) {
	dir := s.assistantDir(assistantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write uploaded file: %w", err)
	}
	s.log.Debug("Stored uploaded file", "assistant_id", assistantID, "file_name", fileName, "bytes", len(data))
	return path, nil
}

func (s *fileStore) Read(assistantID uuid.UUID, fileName string) ([]byte, error) {
	path := filepath.Join(s.assistantDir(assistantID), filepath.Base(fileName))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return data, nil
}

// Remove deletes the stored file; a file already gone is not an error.
func (s *fileStore) Remove(assistantID uuid.UUID, fileName string) error {
	path := filepath.Join(s.assistantDir(assistantID), filepath.Base(fileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}
