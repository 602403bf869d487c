package factory

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"slices"
	"strings"
)

// TaskGroup is the set of counting tasks built for one aggregator type, together with the
// writers that receive their snapshots.
type TaskGroup struct {
	Type    string
	Tasks   []model.Task
	Writers []model.Writer
}

// TaskFactory builds the task group of one aggregator type from the config.
type TaskFactory func(cfg *config.Config) (*TaskGroup, error)

var registry = make(map[string]TaskFactory)

// RegisterAggregator makes an aggregator type available to Create. It is called from init
// functions and panics if the name is taken.
func RegisterAggregator(name string, factory TaskFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("aggregator type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered returns the registered aggregator types in sorted order.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Create builds one task group per entry of aggregator.types, in config order.
// Naming a type twice is a config error, since every table would be counted and written twice.
func Create(cfg *config.Config) ([]TaskGroup, error) {
	groups := make([]TaskGroup, 0, len(cfg.Aggregator.Types))
	seen := make(map[string]bool, len(cfg.Aggregator.Types))

	for _, aggType := range cfg.Aggregator.Types {
		if seen[aggType] {
			return nil, fmt.Errorf("%w: aggregator type '%s' listed more than once", model.ErrConfig, aggType)
		}
		seen[aggType] = true

		factory, ok := registry[aggType]
		if !ok {
			return nil, fmt.Errorf("%w: unknown aggregator type '%s' (known: %s)",
				model.ErrConfig, aggType, strings.Join(Registered(), ", "))
		}

		group, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("aggregator '%s': %w", aggType, err)
		}
		group.Type = aggType
		log.Printf("Aggregator '%s': %d tasks, %d writers.", aggType, len(group.Tasks), len(group.Writers))
		groups = append(groups, *group)
	}

	return groups, nil
}
