package manager

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"
	"FlowTagger/internal/notification"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const protocolsCSV = "Decimal,Keyword,Protocol\n1,ICMP,Internet Control Message\n6,TCP,Transmission Control\n17,UDP,User Datagram\n"

const lookupCSV = `dstport,protocol,tag
25,tcp,sv_P1
68,udp,sv_P2
23,tcp,sv_P1
443,tcp,sv_P2
110,tcp,email
993,tcp,email
143,tcp,email
`

const flowLog = `2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-4d3c2b1a 192.168.1.100 203.0.113.101 23 49154 6 15 12000 1620140761 1620140821 REJECT OK
2 123456789012 eni-5e6f7g8h 192.168.1.101 198.51.100.3 25 49155 6 10 8000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-9h8g7f6e 172.16.0.100 203.0.113.102 110 49156 6 12 9000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-7i8j9k0l 172.16.0.101 192.0.2.203 993 49157 6 8 5000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-6m7n8o9p 10.0.2.200 198.51.100.4 143 49158 6 18 14000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-1a2b3c4d 192.168.0.1 203.0.113.12 1024 80 6 10 5000 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-1a2b3c4d 203.0.113.12 192.168.0.1 80 1024 6 12 6000 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-1a2b3c4d 10.0.1.102 172.217.7.228 1030 443 6 8 4000 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-5f6g7h8i 10.0.2.103 52.26.198.183 56000 23 6 15 7500 1620140661 1620140721 REJECT OK
2 123456789012 eni-9k10l11m 192.168.1.5 51.15.99.115 49321 25 6 20 10000 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-1a2b3c4d 192.168.1.6 87.250.250.242 49152 110 6 5 2500 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-2d2e2f3g 192.168.2.7 77.88.55.80 49153 993 6 7 3500 1620140661 1620140721 ACCEPT OK
2 123456789012 eni-4h5i6j7k 172.16.0.2 192.0.2.146 49154 143 6 9 4500 1620140661 1620140721 ACCEPT OK
bad line
`

type fixture struct {
	dir string
	cfg *config.Config
}

func newFixture(t *testing.T, flow string) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return path
	}

	cfg := config.Default()
	cfg.Inputs.ProtocolsPath = write("protocol-numbers.csv", protocolsCSV)
	cfg.Inputs.LookupPath = write("lookup_table.csv", lookupCSV)
	cfg.Inputs.FlowLogPath = write("flow_log.txt", flow)
	cfg.Output.Dir = filepath.Join(dir, "output")
	return &fixture{dir: dir, cfg: cfg}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.Output.Dir, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func run(t *testing.T, cfg *config.Config) (*Report, error) {
	t.Helper()
	m, err := NewManager(cfg, notification.Discard{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m.Run()
}

func TestManager_Run(t *testing.T) {
	f := newFixture(t, flowLog)

	report, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Records != 14 || report.SkippedLines != 1 {
		t.Errorf("Expected 14 records and 1 skipped line, got %d and %d", report.Records, report.SkippedLines)
	}
	if len(report.Snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(report.Snapshots))
	}
	for _, s := range report.Snapshots {
		if s.Total() != uint64(report.Records) {
			t.Errorf("Task %s counted %d records, want %d", s.TaskName, s.Total(), report.Records)
		}
	}

	expectedTags := "Tag,Count\nuntagged,8\nemail,3\nsv_P1,2\nsv_P2,1\n"
	if got := f.read(t, "tag_count.csv"); got != expectedTags {
		t.Errorf("Unexpected tag_count.csv:\n%s\nwant:\n%s", got, expectedTags)
	}

	expectedPairs := "Port,Protocol,Count\n" +
		"49153,tcp,1\n49154,tcp,1\n49155,tcp,1\n49156,tcp,1\n49157,tcp,1\n49158,tcp,1\n" +
		"80,tcp,1\n1024,tcp,1\n443,tcp,1\n23,tcp,1\n25,tcp,1\n110,tcp,1\n993,tcp,1\n143,tcp,1\n"
	if got := f.read(t, "port_protocol_counts.csv"); got != expectedPairs {
		t.Errorf("Unexpected port_protocol_counts.csv:\n%s\nwant:\n%s", got, expectedPairs)
	}
}

func TestManager_Scenario(t *testing.T) {
	f := newFixture(t, "2 1 eni-1 10.0.0.1 10.0.0.2 49152 443 6\n2 1 eni-1 10.0.0.1 10.0.0.2 49153 80 17\n")
	if err := os.WriteFile(f.cfg.Inputs.LookupPath, []byte("dstport,protocol,tag\n443,tcp,web\n"), 0644); err != nil {
		t.Fatalf("Failed to write lookup: %v", err)
	}

	if _, err := run(t, f.cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.read(t, "tag_count.csv"); got != "Tag,Count\nweb,1\nuntagged,1\n" {
		t.Errorf("Unexpected tag_count.csv:\n%s", got)
	}
	if got := f.read(t, "port_protocol_counts.csv"); got != "Port,Protocol,Count\n443,tcp,1\n80,udp,1\n" {
		t.Errorf("Unexpected port_protocol_counts.csv:\n%s", got)
	}
}

func TestManager_UnknownProtocol(t *testing.T) {
	f := newFixture(t, "2 1 eni-1 10.0.0.1 10.0.0.2 49152 443 255\n")
	if _, err := run(t, f.cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.read(t, "tag_count.csv"); got != "Tag,Count\nuntagged,1\n" {
		t.Errorf("Unexpected tag_count.csv:\n%s", got)
	}
	if got := f.read(t, "port_protocol_counts.csv"); got != "Port,Protocol,Count\n443,unknown,1\n" {
		t.Errorf("Unexpected port_protocol_counts.csv:\n%s", got)
	}
}

func TestManager_FatalErrorsWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		want   error
	}{
		{"missing protocols", func(cfg *config.Config) { cfg.Inputs.ProtocolsPath += ".missing" }, model.ErrConfig},
		{"missing lookup", func(cfg *config.Config) { cfg.Inputs.LookupPath += ".missing" }, model.ErrConfig},
		{"missing flow log", func(cfg *config.Config) { cfg.Inputs.FlowLogPath += ".missing" }, model.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, flowLog)
			tt.mutate(f.cfg)

			_, err := run(t, f.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if _, err := os.Stat(f.cfg.Output.Dir); !os.IsNotExist(err) {
				t.Errorf("Output directory should not exist after a fatal error")
			}
		})
	}
}

func TestManager_BadLookupHeader(t *testing.T) {
	f := newFixture(t, flowLog)
	if err := os.WriteFile(f.cfg.Inputs.LookupPath, []byte("port,proto,label\n443,tcp,web\n"), 0644); err != nil {
		t.Fatalf("Failed to write lookup: %v", err)
	}
	if _, err := run(t, f.cfg); !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestManager_Deterministic(t *testing.T) {
	f := newFixture(t, flowLog)
	m, err := NewManager(f.cfg, notification.Discard{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.Run(); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first := f.read(t, "port_protocol_counts.csv")
	firstTags := f.read(t, "tag_count.csv")

	// A second run on the same manager starts from empty counts.
	report, err := m.Run()
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report.Snapshots[0].Total() != 14 {
		t.Errorf("Expected counts to be reset between runs, got total %d", report.Snapshots[0].Total())
	}
	if !bytes.Equal([]byte(first), []byte(f.read(t, "port_protocol_counts.csv"))) ||
		firstTags != f.read(t, "tag_count.csv") {
		t.Errorf("Two runs produced different output")
	}
}

func TestManager_ExtraTasksAndAlerts(t *testing.T) {
	f := newFixture(t, flowLog)
	f.cfg.Aggregator.Tasks = append(f.cfg.Aggregator.Tasks, config.ExactTaskDef{Name: "by_action", KeyFields: []string{"Action"}})
	f.cfg.Output.Writers = append(f.cfg.Output.Writers, config.WriterDef{Type: "json", Enabled: true})
	f.cfg.Alerter = config.AlerterConfig{
		Enabled: true,
		Rules: []config.AlerterRule{
			{Name: "untagged", TaskName: "tag_count", Metric: "key_ratio", Key: "untagged", Operator: ">", Threshold: 0.5},
		},
	}

	report, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.read(t, "by_action.csv"); got != "Action,Count\nACCEPT,12\nREJECT,2\n" {
		t.Errorf("Unexpected by_action.csv:\n%s", got)
	}
	for _, name := range []string{"tag_count.json", "port_protocol_counts.json", "by_action.json"} {
		f.read(t, name)
	}
	if len(report.Alerts) != 1 {
		t.Errorf("Expected 1 alert, got %v", report.Alerts)
	}
}

func TestManager_BuiltinProtocols(t *testing.T) {
	f := newFixture(t, flowLog)
	f.cfg.Inputs.ProtocolsPath = ""
	f.cfg.Inputs.BuiltinProtocols = true

	report, err := run(t, f.cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Records != 14 {
		t.Errorf("Expected 14 records, got %d", report.Records)
	}
	expected := "Tag,Count\nuntagged,8\nemail,3\nsv_P1,2\nsv_P2,1\n"
	if got := f.read(t, "tag_count.csv"); got != expected {
		t.Errorf("Unexpected tag_count.csv with the builtin table:\n%s", got)
	}
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Order = "alphabetical"
	if _, err := NewManager(cfg, nil); !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig for an unknown order, got %v", err)
	}

	cfg = config.Default()
	cfg.Aggregator.Tasks[0].KeyFields = []string{"Colour"}
	if _, err := NewManager(cfg, nil); !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig for an unknown key field, got %v", err)
	}

	cfg = config.Default()
	cfg.Aggregator.Types = []string{"exact", "exact"}
	if _, err := NewManager(cfg, nil); !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig for a repeated aggregator type, got %v", err)
	}
}
