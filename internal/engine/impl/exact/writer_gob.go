package exact

import (
	"FlowTagger/internal/engine/impl/exact/statistic"
	"encoding/gob"
	"fmt"
	"io"
)

func init() {
	// Register the concrete type of the snapshot for gob encoding/decoding.
	gob.Register(statistic.SnapshotData{})
}

// GobWriter writes task snapshots to disk in gob format, rows already ordered.
type GobWriter struct {
	rootPath string
	compare  statistic.Comparator
}

// NewGobWriter creates a new writer for task snapshot data.
func NewGobWriter(rootPath string, compare statistic.Comparator) *GobWriter {
	return &GobWriter{rootPath: rootPath, compare: compare}
}

// Type returns "gob".
func (w *GobWriter) Type() string {
	return "gob"
}

// Write encodes the snapshot to <name>.dat.
func (w *GobWriter) Write(payload interface{}, name string) error {
	snapshot, ok := payload.(statistic.SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for GobWriter: expected statistic.SnapshotData, got %T", payload)
	}
	snapshot.Counts = snapshot.Sorted(w.compare)

	return writeFileAtomic(w.rootPath, name+".dat", func(out io.Writer) error {
		if err := gob.NewEncoder(out).Encode(snapshot); err != nil {
			return fmt.Errorf("failed to encode '%s' to gob: %w", name, err)
		}
		return nil
	})
}

// ReadGob decodes a snapshot written by GobWriter.
func ReadGob(r io.Reader) (statistic.SnapshotData, error) {
	var snapshot statistic.SnapshotData
	if err := gob.NewDecoder(r).Decode(&snapshot); err != nil {
		return statistic.SnapshotData{}, fmt.Errorf("failed to decode gob snapshot: %w", err)
	}
	return snapshot, nil
}
