package statistic

// Count is a single bucket of a keyed counting task.
type Count struct {
	Key     string   // joined key values, unique within a task
	Values  []string // one value per key field, in key field order
	Count   uint64
	Packets uint64
	Bytes   uint64
}

// SnapshotData represents the full snapshot for a single exact task.
// This is the data structure returned by the Snapshot() method.
// Counts are in the order their keys were first seen.
type SnapshotData struct {
	TaskName  string
	KeyFields []string
	Columns   []string // output column labels for the key fields
	Counts    []*Count
}

// Total returns the number of records counted across all buckets.
func (s SnapshotData) Total() uint64 {
	var total uint64
	for _, c := range s.Counts {
		total += c.Count
	}
	return total
}

// TotalPackets returns the sum of packets across all buckets.
func (s SnapshotData) TotalPackets() uint64 {
	var total uint64
	for _, c := range s.Counts {
		total += c.Packets
	}
	return total
}

// TotalBytes returns the sum of bytes across all buckets.
func (s SnapshotData) TotalBytes() uint64 {
	var total uint64
	for _, c := range s.Counts {
		total += c.Bytes
	}
	return total
}

// Find returns the bucket whose key values equal values.
func (s SnapshotData) Find(values ...string) (*Count, bool) {
	for _, c := range s.Counts {
		if equal(c.Values, values) {
			return c, true
		}
	}
	return nil, false
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
