package main

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/manager"
	"FlowTagger/internal/notification"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
)

const version = "0.3.0"

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flow-tagger [options]\n\n")
		fmt.Fprintf(os.Stderr, "flow-tagger tags flow log records by destination port and protocol\n")
		fmt.Fprintf(os.Stderr, "and writes per-tag and per-(port, protocol) counts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  flow-tagger -f data/flow_log.txt -l data/lookup_table.csv\n")
		fmt.Fprintf(os.Stderr, "  flow-tagger -c configs/config.yaml --format csv --format console\n")
	}

	configPath := pflag.StringP("config", "c", "", "YAML configuration file (defaults are used when empty)")
	protocolsPath := pflag.StringP("protocols", "p", "", "Protocol numbers CSV (Decimal,Keyword)")
	lookupPath := pflag.StringP("lookup", "l", "", "Lookup table CSV (dstport,protocol,tag)")
	flowLogPath := pflag.StringP("flow-log", "f", "", "Flow log file")
	outputDir := pflag.StringP("output", "o", "", "Output directory")
	order := pflag.String("order", "", "Row order: count_desc, insertion or key")
	formats := pflag.StringSlice("format", nil, "Output writer types to enable: csv, json, gob, console (replaces the configured writers)")
	builtin := pflag.Bool("builtin-protocols", false, "Use the builtin protocol table when no protocol file is given")
	lowerTags := pflag.Bool("lower-tags", false, "Lowercase tags from the lookup table")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}
	if *versionFlag {
		fmt.Printf("flow-tagger version %s\n", version)
		return
	}

	// 1. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("Configuration loaded from '%s'.", *configPath)
	}

	// 2. Apply command-line overrides
	if pflag.Lookup("protocols").Changed {
		cfg.Inputs.ProtocolsPath = *protocolsPath
	}
	if *builtin {
		cfg.Inputs.BuiltinProtocols = true
		if !pflag.Lookup("protocols").Changed {
			cfg.Inputs.ProtocolsPath = ""
		}
	}
	if *lookupPath != "" {
		cfg.Inputs.LookupPath = *lookupPath
	}
	if *flowLogPath != "" {
		cfg.Inputs.FlowLogPath = *flowLogPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *order != "" {
		cfg.Output.Order = *order
	}
	if *lowerTags {
		cfg.Lookup.TagCase = "lower"
	}
	if len(*formats) > 0 {
		cfg.Output.Writers = nil
		for _, format := range *formats {
			cfg.Output.Writers = append(cfg.Output.Writers, config.WriterDef{Type: format, Enabled: true, Top: 20})
		}
	}

	// 3. Initialize the pipeline
	m, err := manager.NewManager(cfg, notification.NewLogNotifier(nil))
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 4. Run it
	report, err := m.Run()
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	log.Printf("Tagged %d records into '%s'.", report.Records, cfg.Output.Dir)
}
