package manager

import (
	"FlowTagger/internal/alerter"
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/classifier"
	_ "FlowTagger/internal/engine/impl/exact" // Registers exact task aggregator
	"FlowTagger/internal/engine/impl/exact/statistic"
	"FlowTagger/internal/engine/protocol"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/model"
	"FlowTagger/pkg/flowlog"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Report summarises a completed run.
type Report struct {
	Lines           int
	Records         int
	SkippedLines    int
	ProtocolEntries int
	LookupEntries   int
	SkippedRows     int
	Snapshots       []statistic.SnapshotData
	Alerts          []string
	Duration        time.Duration
}

// Manager runs the parse, classify, count and write pipeline for a set of tasks and writers.
type Manager struct {
	cfg        *config.Config
	taskGroups []factory.TaskGroup
	alerter    *alerter.Alerter
	notifier   model.Notifier
}

// NewManager creates a new Manager from a validated configuration.
func NewManager(cfg *config.Config, notifier model.Notifier) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	taskGroups, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	var alertr *alerter.Alerter
	if cfg.Alerter.Enabled {
		alertr, err = alerter.NewAlerter(&cfg.Alerter, notifier)
		if err != nil {
			return nil, fmt.Errorf("failed to create alerter: %w", err)
		}
		log.Println("Alerter enabled and initialized.")
	}

	return &Manager{
		cfg:        cfg,
		taskGroups: taskGroups,
		alerter:    alertr,
		notifier:   notifier,
	}, nil
}

// inputs holds the sources loaded before classification starts.
type inputs struct {
	registry *protocol.Registry
	table    *lookup.Table
	flowLog  *flowlog.Reader
}

// loadInputs loads the protocol registry and lookup table and opens the flow log concurrently.
// Errors are reported in a fixed order so a run with several broken inputs always fails the same way.
func (m *Manager) loadInputs() (*inputs, error) {
	var (
		in                             inputs
		registryErr, tableErr, flowErr error
		wg                             sync.WaitGroup
	)
	wg.Add(3)

	go func() {
		defer wg.Done()
		if m.cfg.Inputs.ProtocolsPath == "" && m.cfg.Inputs.BuiltinProtocols {
			in.registry = protocol.BuiltinRegistry()
			return
		}
		in.registry, registryErr = protocol.LoadRegistry(m.cfg.Inputs.ProtocolsPath)
	}()

	go func() {
		defer wg.Done()
		opts := lookup.Options{TagCase: lookup.TagCase(m.cfg.Lookup.TagCase)}
		in.table, tableErr = lookup.Load(m.cfg.Inputs.LookupPath, opts)
	}()

	go func() {
		defer wg.Done()
		in.flowLog, flowErr = flowlog.NewReader(m.cfg.Inputs.FlowLogPath)
	}()

	wg.Wait()

	for _, err := range []error{registryErr, tableErr, flowErr} {
		if err != nil {
			if in.flowLog != nil {
				in.flowLog.Close()
			}
			return nil, err
		}
	}
	return &in, nil
}

// Run executes the whole pipeline once. Nothing is written unless every input loads
// and the flow log is read to the end.
func (m *Manager) Run() (*Report, error) {
	start := time.Now()
	m.resetAllTasks()

	in, err := m.loadInputs()
	if err != nil {
		return nil, err
	}
	defer in.flowLog.Close()

	m.notify("load", fmt.Sprintf("%s protocol numbers, %s lookup entries (%d rows skipped)",
		humanize.Comma(int64(in.registry.Len())), humanize.Comma(int64(in.table.Len())), in.table.Skipped()))

	c := classifier.New(in.table)
	stats, err := in.flowLog.Each(in.registry, func(record *model.FlowRecord) {
		tagged := c.Classify(*record)
		// Fan out the record to all tasks in all groups
		for _, group := range m.taskGroups {
			for _, task := range group.Tasks {
				task.ProcessRecord(&tagged)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	m.notify("parse", fmt.Sprintf("%s records from %s lines (%s malformed lines skipped)",
		humanize.Comma(int64(stats.Records)), humanize.Comma(int64(stats.Lines)), humanize.Comma(int64(stats.Skipped))))

	report := &Report{
		Lines:           stats.Lines,
		Records:         stats.Records,
		SkippedLines:    stats.Skipped,
		ProtocolEntries: in.registry.Len(),
		LookupEntries:   in.table.Len(),
		SkippedRows:     in.table.Skipped(),
	}

	snapshots := make([][]statistic.SnapshotData, len(m.taskGroups))
	for i, group := range m.taskGroups {
		for _, task := range group.Tasks {
			snapshot, ok := task.Snapshot().(statistic.SnapshotData)
			if !ok {
				return nil, fmt.Errorf("task '%s' returned unexpected snapshot type %T", task.Name(), task.Snapshot())
			}
			snapshots[i] = append(snapshots[i], snapshot)
			report.Snapshots = append(report.Snapshots, snapshot)
		}
	}

	if m.alerter != nil {
		report.Alerts = m.alerter.Evaluate(report.Snapshots)
	}

	for i, group := range m.taskGroups {
		if err := m.writeGroup(group, snapshots[i]); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	m.notify("done", fmt.Sprintf("run completed in %s", report.Duration.Round(time.Millisecond)))
	return report, nil
}

// writeGroup hands every snapshot of a group to each of the group's writers.
func (m *Manager) writeGroup(group factory.TaskGroup, snapshots []statistic.SnapshotData) error {
	for _, writer := range group.Writers {
		for _, snapshot := range snapshots {
			if err := writer.Write(snapshot, snapshot.TaskName); err != nil {
				return fmt.Errorf("error writing '%s' with %s writer: %w", snapshot.TaskName, writer.Type(), err)
			}
		}
		m.notify("write", fmt.Sprintf("%s writer wrote %d tables", writer.Type(), len(snapshots)))
	}
	return nil
}

// resetAllTasks clears every task so that Run can be called more than once.
func (m *Manager) resetAllTasks() {
	for _, group := range m.taskGroups {
		for _, task := range group.Tasks {
			task.Reset()
		}
	}
}

func (m *Manager) notify(subject, body string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Send(subject, body); err != nil {
		log.Printf("Failed to send '%s' notification: %v", subject, err)
	}
}
