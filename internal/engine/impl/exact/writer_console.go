package exact

import (
	"FlowTagger/internal/engine/impl/exact/statistic"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	countStyle  = cellStyle.Align(lipgloss.Right)
)

// ConsoleWriter prints each task snapshot as a table, limited to the top rows.
type ConsoleWriter struct {
	out     io.Writer
	compare statistic.Comparator
	top     int
}

// NewConsoleWriter creates a console writer. top <= 0 prints every row.
func NewConsoleWriter(out io.Writer, compare statistic.Comparator, top int) *ConsoleWriter {
	return &ConsoleWriter{out: out, compare: compare, top: top}
}

// Type returns "console".
func (w *ConsoleWriter) Type() string {
	return "console"
}

// Write renders the snapshot with lipgloss.
func (w *ConsoleWriter) Write(payload interface{}, name string) error {
	snapshot, ok := payload.(statistic.SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for ConsoleWriter: expected statistic.SnapshotData, got %T", payload)
	}

	rows := snapshot.Sorted(w.compare)
	shown := len(rows)
	if w.top > 0 && shown > w.top {
		shown = w.top
	}

	countCol := len(snapshot.Columns)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append(append([]string(nil), snapshot.Columns...), "Count")...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == countCol:
				return countStyle
			default:
				return cellStyle
			}
		})
	for _, row := range rows[:shown] {
		t.Row(append(append([]string(nil), row.Values...), humanize.Comma(int64(row.Count)))...)
	}

	title := fmt.Sprintf("%s: %s records in %s buckets", name,
		humanize.Comma(int64(snapshot.Total())), humanize.Comma(int64(len(rows))))
	if shown < len(rows) {
		title += fmt.Sprintf(" (top %d)", shown)
	}
	if _, err := fmt.Fprintf(w.out, "%s\n%s\n", titleStyle.Render(title), t.Render()); err != nil {
		return fmt.Errorf("failed to print '%s': %w", name, err)
	}
	return nil
}
