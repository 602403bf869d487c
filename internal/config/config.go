package config

import (
	"FlowTagger/internal/model"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InputsConfig holds the paths of the three input sources.
type InputsConfig struct {
	ProtocolsPath    string `yaml:"protocols_path"`
	BuiltinProtocols bool   `yaml:"builtin_protocols"`
	LookupPath       string `yaml:"lookup_path"`
	FlowLogPath      string `yaml:"flow_log_path"`
}

// LookupConfig controls how the lookup table is loaded.
type LookupConfig struct {
	TagCase string `yaml:"tag_case"`
}

// ExactTaskDef defines a single counting task from the config file.
type ExactTaskDef struct {
	Name      string   `yaml:"name"`
	KeyFields []string `yaml:"key_fields"`
}

// AggregatorConfig holds the configuration for the aggregation tasks.
type AggregatorConfig struct {
	Types []string       `yaml:"types"`
	Tasks []ExactTaskDef `yaml:"tasks"`
}

// WriterDef defines a single output writer.
type WriterDef struct {
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`
	Top     int    `yaml:"top"` // console writer only, 0 means all rows
}

// OutputConfig holds the output location, row order and writers.
type OutputConfig struct {
	Dir     string      `yaml:"dir"`
	Order   string      `yaml:"order"`
	Writers []WriterDef `yaml:"writers"`
}

// AlerterRule defines a threshold check evaluated against a task's counts after a run.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	TaskName  string  `yaml:"task_name"`
	Metric    string  `yaml:"metric"`
	Key       string  `yaml:"key"` // for key_count and key_ratio, key values joined by ','
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig holds the alert rules.
type AlerterConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rules   []AlerterRule `yaml:"rules"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Inputs     InputsConfig     `yaml:"inputs"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Output     OutputConfig     `yaml:"output"`
	Alerter    AlerterConfig    `yaml:"alerter"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Inputs: InputsConfig{
			BuiltinProtocols: true,
			LookupPath:       "data/lookup_table.csv",
			FlowLogPath:      "data/flow_log.txt",
		},
		Lookup: LookupConfig{TagCase: "preserve"},
		Aggregator: AggregatorConfig{
			Types: []string{"exact"},
			Tasks: []ExactTaskDef{
				{Name: "tag_count", KeyFields: []string{"Tag"}},
				{Name: "port_protocol_counts", KeyFields: []string{"DstPort", "Protocol"}},
			},
		},
		Output: OutputConfig{
			Dir:   "output",
			Order: "count_desc",
			Writers: []WriterDef{
				{Type: "csv", Enabled: true},
			},
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Keys missing from the file keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", model.ErrConfig, err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config YAML: %w", model.ErrConfig, err)
	}

	return cfg, nil
}

// Validate checks the values that cannot be checked by the components themselves.
func (c *Config) Validate() error {
	if c.Inputs.ProtocolsPath == "" && !c.Inputs.BuiltinProtocols {
		return fmt.Errorf("%w: inputs.protocols_path is required unless inputs.builtin_protocols is set", model.ErrConfig)
	}
	if c.Inputs.LookupPath == "" {
		return fmt.Errorf("%w: inputs.lookup_path is required", model.ErrConfig)
	}
	if c.Inputs.FlowLogPath == "" {
		return fmt.Errorf("%w: inputs.flow_log_path is required", model.ErrConfig)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is required", model.ErrConfig)
	}

	if len(c.Aggregator.Types) == 0 {
		return fmt.Errorf("%w: aggregator.types is empty", model.ErrConfig)
	}
	if len(c.Aggregator.Tasks) == 0 {
		return fmt.Errorf("%w: at least one aggregation task is required", model.ErrConfig)
	}
	seen := make(map[string]bool, len(c.Aggregator.Tasks))
	for _, task := range c.Aggregator.Tasks {
		if task.Name == "" {
			return fmt.Errorf("%w: aggregation task without a name", model.ErrConfig)
		}
		if seen[task.Name] {
			return fmt.Errorf("%w: duplicate aggregation task '%s'", model.ErrConfig, task.Name)
		}
		seen[task.Name] = true
	}

	enabled := 0
	for _, w := range c.Output.Writers {
		if w.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("%w: no output writer is enabled", model.ErrConfig)
	}

	if c.Alerter.Enabled {
		for _, rule := range c.Alerter.Rules {
			if !seen[rule.TaskName] {
				return fmt.Errorf("%w: alert rule '%s' refers to unknown task '%s'", model.ErrConfig, rule.Name, rule.TaskName)
			}
		}
	}
	return nil
}
