package exact

import (
	"FlowTagger/internal/engine/impl/exact/statistic"
	"FlowTagger/internal/model"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
)

// CSVWriter writes each task snapshot as <name>.csv with one row per bucket.
// It implements the model.Writer interface.
type CSVWriter struct {
	rootPath string
	compare  statistic.Comparator
}

// NewCSVWriter creates a new CSV writer. A nil comparator keeps first-seen order.
func NewCSVWriter(rootPath string, compare statistic.Comparator) *CSVWriter {
	return &CSVWriter{rootPath: rootPath, compare: compare}
}

// Type returns "csv".
func (w *CSVWriter) Type() string {
	return "csv"
}

// Write renders the snapshot as a table with the key columns followed by Count.
func (w *CSVWriter) Write(payload interface{}, name string) error {
	snapshot, ok := payload.(statistic.SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for CSVWriter: expected statistic.SnapshotData, got %T", payload)
	}

	fileName := name + ".csv"
	rows := snapshot.Sorted(w.compare)
	err := writeFileAtomic(w.rootPath, fileName, func(out io.Writer) error {
		return encodeCSV(out, snapshot.Columns, rows)
	})
	if err != nil {
		return err
	}

	log.Printf("Wrote %d rows to %s/%s", len(rows), w.rootPath, fileName)
	return nil
}

func encodeCSV(out io.Writer, columns []string, rows []*statistic.Count) error {
	cw := csv.NewWriter(out)
	header := append(append([]string(nil), columns...), "Count")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := append(append([]string(nil), row.Values...), strconv.FormatUint(row.Count, 10))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

var _ model.Writer = (*CSVWriter)(nil)
