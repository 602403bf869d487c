package exact

import (
	"FlowTagger/internal/engine/impl/exact/statistic"
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// keySeparator joins key values into a bucket key. It cannot appear in a whitespace-split field.
const keySeparator = "\x1f"

// keyField describes a record attribute that can be used as a task key.
type keyField struct {
	column  string
	extract func(r *model.TaggedRecord) string
}

var keyFields = map[string]keyField{
	"Tag":       {"Tag", func(r *model.TaggedRecord) string { return r.Tag }},
	"DstPort":   {"Port", func(r *model.TaggedRecord) string { return strconv.Itoa(int(r.DstPort)) }},
	"Protocol":  {"Protocol", func(r *model.TaggedRecord) string { return r.Protocol }},
	"SrcPort":   {"SrcPort", func(r *model.TaggedRecord) string { return r.Field(model.FieldSrcPort) }},
	"SrcAddr":   {"SrcAddr", func(r *model.TaggedRecord) string { return r.Field(model.FieldSrcAddr) }},
	"DstAddr":   {"DstAddr", func(r *model.TaggedRecord) string { return r.Field(model.FieldDstAddr) }},
	"Action":    {"Action", func(r *model.TaggedRecord) string { return r.Field(model.FieldAction) }},
	"LogStatus": {"LogStatus", func(r *model.TaggedRecord) string { return r.Field(model.FieldLogStatus) }},
	"Account":   {"Account", func(r *model.TaggedRecord) string { return r.Field(model.FieldAccount) }},
	"Interface": {"Interface", func(r *model.TaggedRecord) string { return r.Field(model.FieldInterface) }},
}

// KeyFieldNames lists the key fields a task can be configured with.
func KeyFieldNames() []string {
	return []string{"Tag", "DstPort", "Protocol", "SrcPort", "SrcAddr", "DstAddr", "Action", "LogStatus", "Account", "Interface"}
}

// Task counts tagged records by a fixed set of key fields.
// It implements the model.Task interface. Buckets remember the order in which
// their keys were first seen.
type Task struct {
	name      string
	keyFields []string
	fields    []keyField
	buckets   map[string]*statistic.Count
	order     []*statistic.Count
}

// New creates a new exact counting task.
func New(name string, keyFieldNames []string) (*Task, error) {
	if len(keyFieldNames) == 0 {
		return nil, fmt.Errorf("%w: task '%s' has no key fields", model.ErrConfig, name)
	}
	fields := make([]keyField, len(keyFieldNames))
	for i, fieldName := range keyFieldNames {
		f, ok := keyFields[fieldName]
		if !ok {
			return nil, fmt.Errorf("%w: task '%s': unknown key field: %s", model.ErrConfig, name, fieldName)
		}
		fields[i] = f
	}

	log.Printf("Creating ExactTask '%s' for keys: %v", name, keyFieldNames)
	return &Task{
		name:      name,
		keyFields: append([]string(nil), keyFieldNames...),
		fields:    fields,
		buckets:   make(map[string]*statistic.Count),
	}, nil
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// KeyFields returns the fields this task counts by.
func (t *Task) KeyFields() []string {
	return t.keyFields
}

// ProcessRecord adds a record to its bucket, creating the bucket on first sight.
func (t *Task) ProcessRecord(record *model.TaggedRecord) {
	values := make([]string, len(t.fields))
	for i, f := range t.fields {
		values[i] = f.extract(record)
	}
	key := strings.Join(values, keySeparator)

	if bucket, ok := t.buckets[key]; ok {
		bucket.Count++
		bucket.Packets += record.Packets
		bucket.Bytes += record.Bytes
		return
	}

	bucket := &statistic.Count{
		Key:     key,
		Values:  values,
		Count:   1,
		Packets: record.Packets,
		Bytes:   record.Bytes,
	}
	t.buckets[key] = bucket
	t.order = append(t.order, bucket)
}

// Snapshot returns a deep copy of the current counts as statistic.SnapshotData.
func (t *Task) Snapshot() interface{} {
	counts := make([]*statistic.Count, len(t.order))
	for i, bucket := range t.order {
		c := *bucket
		c.Values = append([]string(nil), bucket.Values...)
		counts[i] = &c
	}

	columns := make([]string, len(t.fields))
	for i, f := range t.fields {
		columns[i] = f.column
	}

	return statistic.SnapshotData{
		TaskName:  t.name,
		KeyFields: append([]string(nil), t.keyFields...),
		Columns:   columns,
		Counts:    counts,
	}
}

// Reset clears the counts.
func (t *Task) Reset() {
	t.buckets = make(map[string]*statistic.Count)
	t.order = nil
}
