package exact

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/impl/exact/statistic"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"os"
)

// --- Factory Registration ---

func init() {
	factory.RegisterAggregator("exact", func(cfg *config.Config) (*factory.TaskGroup, error) {
		order, err := statistic.ParseOrder(cfg.Output.Order)
		if err != nil {
			return nil, fmt.Errorf("%w: output.order: %w", model.ErrConfig, err)
		}
		compare := order.Comparator()

		// Create all enabled writers for this aggregator group
		writers := make([]model.Writer, 0, len(cfg.Output.Writers))
		for _, writerDef := range cfg.Output.Writers {
			if !writerDef.Enabled {
				continue
			}

			var writer model.Writer
			switch writerDef.Type {
			case "csv":
				writer = NewCSVWriter(cfg.Output.Dir, compare)
			case "json":
				writer = NewJSONWriter(cfg.Output.Dir, compare)
			case "gob":
				writer = NewGobWriter(cfg.Output.Dir, compare)
			case "console":
				writer = NewConsoleWriter(os.Stdout, compare, writerDef.Top)
			default:
				log.Printf("Warning: unknown writer type '%s' in config, skipping.", writerDef.Type)
				continue
			}
			writers = append(writers, writer)
		}
		if len(writers) == 0 {
			return nil, fmt.Errorf("%w: no usable output writer configured", model.ErrConfig)
		}

		// Create all tasks for this aggregator group
		tasks := make([]model.Task, len(cfg.Aggregator.Tasks))
		for i, taskCfg := range cfg.Aggregator.Tasks {
			task, err := New(taskCfg.Name, taskCfg.KeyFields)
			if err != nil {
				return nil, err
			}
			tasks[i] = task
		}

		return &factory.TaskGroup{Tasks: tasks, Writers: writers}, nil
	})
}
