package classifier

import (
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/model"
)

// Classifier assigns tags to flow records using a lookup table.
type Classifier struct {
	table *lookup.Table
}

// New creates a classifier backed by table.
func New(table *lookup.Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the record with its tag, or model.UntaggedTag when the table has no entry
// for the record's (destination port, protocol) pair.
func (c *Classifier) Classify(record model.FlowRecord) model.TaggedRecord {
	tag, ok := c.table.Tag(record.Key())
	if !ok {
		tag = model.UntaggedTag
	}
	return model.TaggedRecord{FlowRecord: record, Tag: tag}
}

// ClassifyAll tags every record, preserving order.
func (c *Classifier) ClassifyAll(records []model.FlowRecord) []model.TaggedRecord {
	tagged := make([]model.TaggedRecord, len(records))
	for i, record := range records {
		tagged[i] = c.Classify(record)
	}
	return tagged
}

// ClassifyAndCount tags every record and counts tags and (port, protocol) pairs in a single pass.
// Every record lands in exactly one bucket of each result.
func ClassifyAndCount(records []model.FlowRecord, table *lookup.Table) (model.TagCounts, model.PortProtocolCounts) {
	c := New(table)
	tags := make(model.TagCounts)
	pairs := make(model.PortProtocolCounts)
	for _, record := range records {
		tagged := c.Classify(record)
		tags[tagged.Tag]++
		pairs[tagged.Key()]++
	}
	return tags, pairs
}
