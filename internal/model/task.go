package model

// Task defines a single, self-contained aggregation task (e.g., count by tag).
// This is the interface for the "execution layer".
type Task interface {
	ProcessRecord(record *TaggedRecord)
	Snapshot() interface{}
	Reset()
	Name() string
}
