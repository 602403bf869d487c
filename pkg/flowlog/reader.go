package flowlog

import (
	"FlowTagger/internal/engine/protocol"
	"FlowTagger/internal/model"
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// maxLineSize bounds a single flow log line. Longer lines are skipped as malformed.
const maxLineSize = 1 << 20

// maxLoggedSkips limits how many skipped lines are logged individually.
const maxLoggedSkips = 5

// Stats describes what happened to the lines of a flow log.
type Stats struct {
	Lines   int // lines read, including blank lines
	Records int // lines turned into records
	Skipped int // malformed lines
}

// Reader reads flow log records line by line.
type Reader struct {
	name   string
	src    io.Reader
	closer io.Closer
}

// NewReader opens the flow log at filePath.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open flow log: %w", model.ErrIO, err)
	}
	return &Reader{name: filePath, src: file, closer: file}, nil
}

// NewReaderFrom reads a flow log from an already open source. name is only used in log messages.
func NewReaderFrom(r io.Reader, name string) *Reader {
	return &Reader{name: name, src: r}
}

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() {
	if r.closer != nil {
		r.closer.Close()
	}
}

// Each parses every line and passes valid records to fn in input order.
// Blank lines are ignored; malformed lines, including lines longer than maxLineSize,
// are skipped and counted. Only a failure to read the source is returned as an error.
func (r *Reader) Each(registry *protocol.Registry, fn func(record *model.FlowRecord)) (Stats, error) {
	var stats Stats

	br := bufio.NewReaderSize(r.src, 64*1024)
	for {
		line, oversized, err := nextLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%w: failed to read flow log '%s' at line %d: %w", model.ErrIO, r.name, stats.Lines+1, err)
		}
		stats.Lines++

		var record *model.FlowRecord
		if oversized {
			err = fmt.Errorf("%w: line longer than %d bytes", model.ErrMalformedRecord, maxLineSize)
		} else {
			if strings.TrimSpace(string(line)) == "" {
				continue
			}
			record, err = protocol.ParseLine(string(line), registry)
		}
		if err != nil {
			stats.Skipped++
			if stats.Skipped <= maxLoggedSkips {
				log.Printf("Skipping line %d of '%s': %v", stats.Lines, r.name, err)
			}
			continue
		}
		record.Line = stats.Lines
		stats.Records++
		fn(record)
	}

	if stats.Skipped > maxLoggedSkips {
		log.Printf("Skipped %d malformed lines in '%s' (%d logged).", stats.Skipped, r.name, maxLoggedSkips)
	}
	return stats, nil
}

// nextLine returns the next line without its terminator. A line longer than maxLineSize is
// read to its end and discarded, and reported as oversized.
func nextLine(br *bufio.Reader) ([]byte, bool, error) {
	var (
		line      []byte
		oversized bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || oversized) {
				return line, oversized, nil
			}
			return nil, false, err
		}
		if !oversized {
			if len(line)+len(chunk) > maxLineSize {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, oversized, nil
		}
	}
}

// ReadRecords reads all records from the flow log.
func (r *Reader) ReadRecords(registry *protocol.Registry) ([]model.FlowRecord, Stats, error) {
	var records []model.FlowRecord
	stats, err := r.Each(registry, func(record *model.FlowRecord) {
		records = append(records, *record)
	})
	if err != nil {
		return nil, stats, err
	}
	return records, stats, nil
}
