package protocol

import (
	"FlowTagger/internal/model"
	"fmt"
	"strconv"
	"strings"
)

// ParseLine splits a flow log line on runs of whitespace and extracts the destination port
// and protocol. The numeric protocol field is replaced by its keyword from the registry.
// Lines that cannot be used return an error wrapping model.ErrMalformedRecord.
func ParseLine(line string, registry *Registry) (*model.FlowRecord, error) {
	fields := strings.Fields(line)
	if len(fields) < model.MinFlowFields {
		return nil, fmt.Errorf("%w: expected at least %d fields, got %d", model.ErrMalformedRecord, model.MinFlowFields, len(fields))
	}

	port, err := strconv.ParseUint(fields[model.FieldDstPort], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid destination port '%s'", model.ErrMalformedRecord, fields[model.FieldDstPort])
	}

	number, err := strconv.ParseUint(fields[model.FieldProtocol], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid protocol number '%s'", model.ErrMalformedRecord, fields[model.FieldProtocol])
	}

	keyword := registry.Keyword(uint8(number))
	fields[model.FieldProtocol] = keyword

	return &model.FlowRecord{
		Fields:   fields,
		DstPort:  uint16(port),
		Protocol: keyword,
		Packets:  optionalCounter(fields, model.FieldPackets),
		Bytes:    optionalCounter(fields, model.FieldBytes),
	}, nil
}

// optionalCounter parses a numeric counter field. Flow logs write "-" when no data was recorded.
func optionalCounter(fields []string, i int) uint64 {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.ParseUint(fields[i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
