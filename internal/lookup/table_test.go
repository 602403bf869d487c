package lookup

import (
	"FlowTagger/internal/model"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTable = `dstport,protocol,tag
25,tcp,sv_P1
68,udp,sv_P2
23,tcp,sv_P1
31,udp,SV_P3
443,tcp,sv_P2
110,tcp,email
993,TCP ,email
143,tcp,email
`

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(sampleTable), Options{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if table.Len() != 8 {
		t.Errorf("Expected 8 entries, got %d", table.Len())
	}

	tests := []struct {
		key  model.LookupKey
		tag  string
		want bool
	}{
		{model.LookupKey{Port: 25, Protocol: "tcp"}, "sv_P1", true},
		{model.LookupKey{Port: 31, Protocol: "udp"}, "SV_P3", true},
		{model.LookupKey{Port: 993, Protocol: "tcp"}, "email", true},
		{model.LookupKey{Port: 25, Protocol: "udp"}, "", false},
		{model.LookupKey{Port: 80, Protocol: "tcp"}, "", false},
	}
	for _, tt := range tests {
		tag, ok := table.Tag(tt.key)
		if ok != tt.want || tag != tt.tag {
			t.Errorf("Tag(%v) = (%q, %v), want (%q, %v)", tt.key, tag, ok, tt.tag, tt.want)
		}
	}
}

func TestRead_LowerTags(t *testing.T) {
	table, err := Read(strings.NewReader(sampleTable), Options{TagCase: TagCaseLower})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tag, _ := table.Tag(model.LookupKey{Port: 31, Protocol: "udp"}); tag != "sv_p3" {
		t.Errorf("Expected lowercased tag 'sv_p3', got '%s'", tag)
	}
}

func TestRead_ColumnsByName(t *testing.T) {
	input := "Tag, Protocol ,DSTPORT\nweb,TCP,443\nweb,tcp,80\ndns,udp,53\n"
	table, err := Read(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tag, ok := table.Tag(model.LookupKey{Port: 53, Protocol: "udp"}); !ok || tag != "dns" {
		t.Errorf("Expected 'dns' for 53/udp, got (%q, %v)", tag, ok)
	}
	if table.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", table.Len())
	}
}

func TestRead_SkipsMalformedRows(t *testing.T) {
	input := `dstport,protocol,tag
443,tcp,web
http,tcp,web
70000,tcp,web
22,tcp
22,tcp,ssh,extra
,tcp,web
53,,dns
53,udp,
8080,tcp,proxy
8080,tcp,alt-http
`
	table, err := Read(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if table.Skipped() != 7 {
		t.Errorf("Expected 7 skipped rows, got %d", table.Skipped())
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", table.Len())
	}
	// Last write wins for duplicate keys.
	if tag, _ := table.Tag(model.LookupKey{Port: 8080, Protocol: "tcp"}); tag != "alt-http" {
		t.Errorf("Expected 'alt-http', got '%s'", tag)
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	table, err := Read(strings.NewReader("dstport,protocol,tag\n"), Options{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected an empty table, got %d entries", table.Len())
	}
}

func TestRead_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
	}{
		{"empty", "", Options{}},
		{"missing tag column", "dstport,protocol\n443,tcp\n", Options{}},
		{"unknown tag case", sampleTable, Options{TagCase: "upper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.opts)
			if !errors.Is(err, model.ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lookup_table.csv")
	if err := os.WriteFile(path, []byte(sampleTable), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	table, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 8 {
		t.Errorf("Expected 8 entries, got %d", table.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), Options{}); !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig for a missing file, got %v", err)
	}
}
