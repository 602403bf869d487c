package model

// Positions of the fields FlowTagger reads from an AWS VPC flow log (version 2) line.
const (
	FieldVersion   = 0
	FieldAccount   = 1
	FieldInterface = 2
	FieldSrcAddr   = 3
	FieldDstAddr   = 4
	FieldSrcPort   = 5
	FieldDstPort   = 6
	FieldProtocol  = 7
	FieldPackets   = 8
	FieldBytes     = 9
	FieldStart     = 10
	FieldEnd       = 11
	FieldAction    = 12
	FieldLogStatus = 13

	// MinFlowFields is the smallest number of fields a usable record can have.
	MinFlowFields = FieldProtocol + 1
)

// UntaggedTag is assigned to records that match no lookup entry.
const UntaggedTag = "untagged"

// LookupKey identifies a lookup table entry. Protocol is always lowercase.
type LookupKey struct {
	Port     uint16
	Protocol string
}

// FlowRecord holds the fields of a single flow log line.
// Fields[FieldProtocol] carries the resolved protocol keyword, not the raw number.
type FlowRecord struct {
	Fields   []string
	DstPort  uint16
	Protocol string
	Packets  uint64
	Bytes    uint64
	Line     int // 1-based line number in the source
}

// Key returns the (port, protocol) pair used for tag lookups.
func (r FlowRecord) Key() LookupKey {
	return LookupKey{Port: r.DstPort, Protocol: r.Protocol}
}

// Field returns the raw field at index i, or "-" when the line was too short to carry it.
func (r FlowRecord) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return "-"
	}
	return r.Fields[i]
}

// TaggedRecord is a FlowRecord after classification.
type TaggedRecord struct {
	FlowRecord
	Tag string
}

// TagCounts maps a tag to the number of records that carried it.
type TagCounts map[string]uint64

// PortProtocolCounts maps a (port, protocol) pair to the number of records observed for it.
type PortProtocolCounts map[LookupKey]uint64
