package protocol

import (
	"FlowTagger/internal/model"
	"FlowTagger/internal/pkg/csvtable"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

// UnknownKeyword is the keyword of protocol numbers that are not in the registry.
const UnknownKeyword = "unknown"

const (
	decimalColumn = "Decimal"
	keywordColumn = "Keyword"
)

// gopacket names a few protocols differently from the IANA keyword list.
var ianaKeywords = map[layers.IPProtocol]string{
	layers.IPProtocolIPv6HopByHop:    "hopopt",
	layers.IPProtocolICMPv4:          "icmp",
	layers.IPProtocolRUDP:            "rdp",
	layers.IPProtocolIPv6Routing:     "ipv6-route",
	layers.IPProtocolIPv6Fragment:    "ipv6-frag",
	layers.IPProtocolICMPv6:          "ipv6-icmp",
	layers.IPProtocolNoNextHeader:    "ipv6-nonxt",
	layers.IPProtocolIPv6Destination: "ipv6-opts",
	layers.IPProtocolOSPF:            "ospfigp",
	layers.IPProtocolMPLSInIP:        "mpls-in-ip",
}

// Registry maps IP protocol numbers to lowercase keywords. It is read-only after loading.
type Registry struct {
	keywords map[uint8]string
	skipped  int
}

// NewRegistry builds a registry from an in-memory table. Keywords are lowercased.
func NewRegistry(entries map[uint8]string) *Registry {
	r := &Registry{keywords: make(map[uint8]string, len(entries))}
	for number, keyword := range entries {
		r.keywords[number] = strings.ToLower(strings.TrimSpace(keyword))
	}
	return r
}

// LoadRegistry reads a protocol numbers CSV file (IANA layout, with Decimal and Keyword columns).
func LoadRegistry(filePath string) (*Registry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open protocol numbers file: %w", model.ErrConfig, err)
	}
	defer file.Close()

	reg, err := ReadRegistry(file)
	if err != nil {
		return nil, fmt.Errorf("protocol numbers file '%s': %w", filePath, err)
	}
	return reg, nil
}

// ReadRegistry reads a protocol numbers table from r.
// Rows whose Decimal is not a single number in 0-255 (IANA lists ranges such as "143-252")
// or whose Keyword is empty are skipped.
func ReadRegistry(r io.Reader) (*Registry, error) {
	table, err := csvtable.NewReader(r, decimalColumn, keywordColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfig, err)
	}

	reg := &Registry{keywords: make(map[uint8]string)}
	for {
		row, err := table.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if csvtable.IsParseError(err) {
				reg.skipped++
				continue
			}
			return nil, fmt.Errorf("%w: failed to read protocol numbers: %w", model.ErrConfig, err)
		}
		if row.IsBlank() {
			continue
		}

		number, keyword, err := parseRow(row)
		if err != nil {
			reg.skipped++
			continue
		}
		reg.keywords[number] = keyword
	}

	return reg, nil
}

// BuiltinRegistry returns the protocol names known to gopacket, using IANA keywords where they differ.
func BuiltinRegistry() *Registry {
	reg := &Registry{keywords: make(map[uint8]string)}
	for i := 0; i < 256; i++ {
		proto := layers.IPProtocol(i)
		if keyword, ok := ianaKeywords[proto]; ok {
			reg.keywords[uint8(i)] = keyword
			continue
		}
		name := proto.String()
		if name == "" || strings.HasPrefix(name, "Unknown") {
			continue
		}
		reg.keywords[uint8(i)] = strings.ToLower(name)
	}
	log.Printf("Using builtin protocol registry with %d entries.", len(reg.keywords))
	return reg
}

func parseRow(row *csvtable.Row) (uint8, string, error) {
	decimal, ok := row.Get(decimalColumn)
	if !ok {
		return 0, "", fmt.Errorf("%w: line %d: missing Decimal", model.ErrMalformedRow, row.Line)
	}
	number, err := strconv.ParseUint(decimal, 10, 8)
	if err != nil {
		return 0, "", fmt.Errorf("%w: line %d: invalid Decimal '%s'", model.ErrMalformedRow, row.Line, decimal)
	}
	keyword, ok := row.Get(keywordColumn)
	if !ok || keyword == "" {
		return 0, "", fmt.Errorf("%w: line %d: missing Keyword", model.ErrMalformedRow, row.Line)
	}
	return uint8(number), strings.ToLower(keyword), nil
}

// Keyword returns the keyword for a protocol number, or UnknownKeyword when it is not registered.
func (r *Registry) Keyword(number uint8) string {
	if keyword, ok := r.keywords[number]; ok {
		return keyword
	}
	return UnknownKeyword
}

// Len returns the number of registered protocol numbers.
func (r *Registry) Len() int {
	return len(r.keywords)
}

// Skipped returns the number of rows that were ignored while loading.
func (r *Registry) Skipped() int {
	return r.skipped
}
