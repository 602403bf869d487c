package lookup

import (
	"FlowTagger/internal/model"
	"FlowTagger/internal/pkg/csvtable"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	portColumn     = "dstport"
	protocolColumn = "protocol"
	tagColumn      = "tag"
)

// TagCase controls how tag values are normalised while loading.
type TagCase string

const (
	// TagCasePreserve keeps tags as written in the table (trimmed).
	TagCasePreserve TagCase = "preserve"
	// TagCaseLower lowercases tags.
	TagCaseLower TagCase = "lower"
)

// Options configures how a lookup table is loaded.
type Options struct {
	TagCase TagCase
}

// Table maps (destination port, protocol) pairs to tags. It is read-only after loading.
type Table struct {
	tags    map[model.LookupKey]string
	skipped int
}

// NewTable builds a table from an in-memory mapping. Protocols are trimmed and lowercased.
func NewTable(entries map[model.LookupKey]string) *Table {
	t := &Table{tags: make(map[model.LookupKey]string, len(entries))}
	for key, tag := range entries {
		key.Protocol = strings.ToLower(strings.TrimSpace(key.Protocol))
		t.tags[key] = tag
	}
	return t
}

// Load reads a lookup table CSV file with dstport, protocol and tag columns.
func Load(filePath string, opts Options) (*Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open lookup table: %w", model.ErrConfig, err)
	}
	defer file.Close()

	table, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("lookup table '%s': %w", filePath, err)
	}
	return table, nil
}

// Read reads a lookup table from r. The header row is required and columns are bound by name.
// Rows that do not have exactly one value per header column, whose port is not a number
// in 0-65535, or whose protocol or tag is empty are skipped.
func Read(r io.Reader, opts Options) (*Table, error) {
	if opts.TagCase == "" {
		opts.TagCase = TagCasePreserve
	}
	if opts.TagCase != TagCasePreserve && opts.TagCase != TagCaseLower {
		return nil, fmt.Errorf("%w: unknown tag case '%s'", model.ErrConfig, opts.TagCase)
	}

	reader, err := csvtable.NewReader(r, portColumn, protocolColumn, tagColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfig, err)
	}

	t := &Table{tags: make(map[model.LookupKey]string)}
	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if csvtable.IsParseError(err) {
				t.skip(fmt.Errorf("%w: %v", model.ErrMalformedRow, err))
				continue
			}
			return nil, fmt.Errorf("%w: failed to read lookup table: %w", model.ErrConfig, err)
		}
		if row.IsBlank() {
			continue
		}

		key, tag, err := parseRow(row, reader.Columns(), opts)
		if err != nil {
			t.skip(err)
			continue
		}
		t.tags[key] = tag
	}

	if t.skipped > 0 {
		log.Printf("Skipped %d malformed lookup table rows.", t.skipped)
	}
	return t, nil
}

func (t *Table) skip(err error) {
	t.skipped++
	if t.skipped <= 5 {
		log.Printf("Skipping lookup table row: %v", err)
	}
}

func parseRow(row *csvtable.Row, columns int, opts Options) (model.LookupKey, string, error) {
	if len(row.Fields) != columns {
		return model.LookupKey{}, "", fmt.Errorf("%w: line %d: expected %d columns, got %d", model.ErrMalformedRow, row.Line, columns, len(row.Fields))
	}

	portStr, _ := row.Get(portColumn)
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return model.LookupKey{}, "", fmt.Errorf("%w: line %d: invalid dstport '%s'", model.ErrMalformedRow, row.Line, portStr)
	}

	proto, _ := row.Get(protocolColumn)
	proto = strings.ToLower(proto)
	if proto == "" {
		return model.LookupKey{}, "", fmt.Errorf("%w: line %d: empty protocol", model.ErrMalformedRow, row.Line)
	}

	tag, _ := row.Get(tagColumn)
	if tag == "" {
		return model.LookupKey{}, "", fmt.Errorf("%w: line %d: empty tag", model.ErrMalformedRow, row.Line)
	}
	if opts.TagCase == TagCaseLower {
		tag = strings.ToLower(tag)
	}

	return model.LookupKey{Port: uint16(port), Protocol: proto}, tag, nil
}

// Tag returns the tag for key and whether the table has an entry for it.
func (t *Table) Tag(key model.LookupKey) (string, bool) {
	tag, ok := t.tags[key]
	return tag, ok
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.tags)
}

// Skipped returns the number of rows that were ignored while loading.
func (t *Table) Skipped() int {
	return t.skipped
}
