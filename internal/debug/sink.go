package debug

//go:generate $MOCKGEN -source=sink.go -destination=mocks/sink_mock.go

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oshokin/smartfetch/internal/constants"
)

// Sink receives complete debug records keyed by an increasing integer id.
// Implementations decide the write destination and format.
type Sink interface {
	// Write persists the record under the given id,
	// replacing any previous write for the same id.
	Write(id uint64, record *Record) error
}

// FileSink writes each record as a pretty-printed JSON file named after its id.
type FileSink struct {
	// directory is where record files are written.
	directory string
}

// NewFileSink creates the target directory if needed and returns a FileSink over it.
func NewFileSink(directory string) (Sink, error) {
	if err := os.MkdirAll(directory, constants.DefaultFolderPermissions); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}

	return &FileSink{directory: directory}, nil
}

// Write persists the record as <directory>/<id>.json.
// The file is written to a uniquely named temp file first and renamed into
// place, so a record file is never observed half-written.
func (s *FileSink) Write(id uint64, record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal debug record: %w", err)
	}

	finalPath := filepath.Join(s.directory, fmt.Sprintf("%06d%s", id, constants.ExtensionJSON))
	tempPath := filepath.Join(s.directory, fmt.Sprintf("%06d_%s.tmp", id, uuid.New().String()))

	if err = os.WriteFile(tempPath, data, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write debug record: %w", err)
	}

	if err = os.Rename(tempPath, finalPath); err != nil {
		// Leave no temp litter behind on a failed rename.
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to finalize debug record: %w", err)
	}

	return nil
}
