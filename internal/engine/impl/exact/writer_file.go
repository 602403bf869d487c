package exact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeFileAtomic writes a file through a temporary file in the same directory and renames it
// into place once fill succeeds, so readers never see a partially written table.
func writeFileAtomic(dir, fileName string, fill func(w io.Writer) error) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for '%s': %w", fileName, err)
	}
	tmpPath := tmp.Name()

	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary file for '%s': %w", fileName, err)
	}

	filePath := filepath.Join(dir, fileName)
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move '%s' into place: %w", filePath, err)
	}
	return nil
}
