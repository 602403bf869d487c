package alerter

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/impl/exact/statistic"
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"strings"

	"github.com/dustin/go-humanize"
)

// Alerter evaluates task snapshots against predefined rules and sends a notification
// when any rule is triggered.
type Alerter struct {
	rules    []config.AlerterRule
	notifier model.Notifier
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier) (*Alerter, error) {
	for _, rule := range cfg.Rules {
		if _, err := metricValue(rule, statistic.SnapshotData{}); err != nil {
			return nil, fmt.Errorf("%w: alert rule '%s': %w", model.ErrConfig, rule.Name, err)
		}
		if !validOperator(rule.Operator) {
			return nil, fmt.Errorf("%w: alert rule '%s': unknown operator '%s'", model.ErrConfig, rule.Name, rule.Operator)
		}
	}
	return &Alerter{rules: cfg.Rules, notifier: notifier}, nil
}

// Evaluate checks every rule against the snapshot of its task and returns the triggered messages.
// When at least one rule triggers, a consolidated notification is sent.
func (a *Alerter) Evaluate(snapshots []statistic.SnapshotData) []string {
	byTask := make(map[string]statistic.SnapshotData, len(snapshots))
	for _, s := range snapshots {
		byTask[s.TaskName] = s
	}

	var triggered []string
	for _, rule := range a.rules {
		snapshot, ok := byTask[rule.TaskName]
		if !ok {
			continue
		}
		value, err := metricValue(rule, snapshot)
		if err != nil {
			log.Printf("Warning: alert rule '%s': %v", rule.Name, err)
			continue
		}
		if check(value, rule.Threshold, rule.Operator) {
			triggered = append(triggered, fmt.Sprintf("%s: %s %s on task '%s' is %s (%s %g)",
				rule.Name, rule.Metric, describeKey(rule), rule.TaskName, formatValue(value), rule.Operator, rule.Threshold))
		}
	}

	if len(triggered) == 0 {
		return nil
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(triggered))
	if a.notifier != nil {
		subject := fmt.Sprintf("FlowTagger Alert Summary (%d Triggered)", len(triggered))
		if err := a.notifier.Send(subject, strings.Join(triggered, "\n")); err != nil {
			log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
		}
	}
	return triggered
}

// metricValue computes a rule's metric over a snapshot.
func metricValue(rule config.AlerterRule, snapshot statistic.SnapshotData) (float64, error) {
	switch rule.Metric {
	case "total_records":
		return float64(snapshot.Total()), nil
	case "total_packets":
		return float64(snapshot.TotalPackets()), nil
	case "total_bytes":
		return float64(snapshot.TotalBytes()), nil
	case "distinct_keys":
		return float64(len(snapshot.Counts)), nil
	case "key_count", "key_ratio":
		if rule.Key == "" {
			return 0, fmt.Errorf("metric %s needs a key", rule.Metric)
		}
		var count uint64
		if c, ok := snapshot.Find(strings.Split(rule.Key, ",")...); ok {
			count = c.Count
		}
		if rule.Metric == "key_count" {
			return float64(count), nil
		}
		total := snapshot.Total()
		if total == 0 {
			return 0, nil
		}
		return float64(count) / float64(total), nil
	}
	return 0, fmt.Errorf("unknown metric '%s'", rule.Metric)
}

func validOperator(operator string) bool {
	switch operator {
	case ">", "<", "=", ">=", "<=":
		return true
	}
	return false
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator '%s' in alerter rule", operator)
		return false
	}
}

func describeKey(rule config.AlerterRule) string {
	if rule.Key == "" {
		return ""
	}
	return "[" + rule.Key + "]"
}

func formatValue(v float64) string {
	if v == float64(uint64(v)) {
		return humanize.Comma(int64(v))
	}
	return fmt.Sprintf("%.4f", v)
}
