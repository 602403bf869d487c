package exact

import (
	"FlowTagger/internal/engine/impl/exact/statistic"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// jsonRow is a single bucket in a JSON table.
type jsonRow struct {
	Key     map[string]string `json:"key"`
	Count   uint64            `json:"count"`
	Packets uint64            `json:"packets"`
	Bytes   uint64            `json:"bytes"`
}

// jsonTable is the document written for each task.
type jsonTable struct {
	RunID        string    `json:"run_id"`
	TaskName     string    `json:"task_name"`
	KeyFields    []string  `json:"key_fields"`
	TotalRecords uint64    `json:"total_records"`
	TotalPackets uint64    `json:"total_packets"`
	TotalBytes   uint64    `json:"total_bytes"`
	Timestamp    string    `json:"timestamp"`
	Rows         []jsonRow `json:"rows"`
}

// JSONWriter writes each task snapshot as <name>.json, including packet and byte totals.
// All tables written by one JSONWriter share a run id.
type JSONWriter struct {
	rootPath string
	compare  statistic.Comparator
	runID    string
	now      func() time.Time
}

// NewJSONWriter creates a new JSON writer with a fresh run id.
func NewJSONWriter(rootPath string, compare statistic.Comparator) *JSONWriter {
	return &JSONWriter{rootPath: rootPath, compare: compare, runID: uuid.NewString(), now: time.Now}
}

// Type returns "json".
func (w *JSONWriter) Type() string {
	return "json"
}

// RunID returns the id stamped into every table this writer produces.
func (w *JSONWriter) RunID() string {
	return w.runID
}

// Write serializes the snapshot as an indented JSON document.
func (w *JSONWriter) Write(payload interface{}, name string) error {
	snapshot, ok := payload.(statistic.SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for JSONWriter: expected statistic.SnapshotData, got %T", payload)
	}

	rows := snapshot.Sorted(w.compare)
	table := jsonTable{
		RunID:        w.runID,
		TaskName:     snapshot.TaskName,
		KeyFields:    snapshot.KeyFields,
		TotalRecords: snapshot.Total(),
		TotalPackets: snapshot.TotalPackets(),
		TotalBytes:   snapshot.TotalBytes(),
		Timestamp:    w.now().UTC().Format(time.RFC3339),
		Rows:         make([]jsonRow, len(rows)),
	}
	for i, row := range rows {
		key := make(map[string]string, len(snapshot.KeyFields))
		for j, field := range snapshot.KeyFields {
			key[field] = row.Values[j]
		}
		table.Rows[i] = jsonRow{Key: key, Count: row.Count, Packets: row.Packets, Bytes: row.Bytes}
	}

	return writeFileAtomic(w.rootPath, name+".json", func(out io.Writer) error {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(table); err != nil {
			return fmt.Errorf("failed to encode '%s' to json: %w", name, err)
		}
		return nil
	})
}
