package notification

import (
	"FlowTagger/internal/model"
	"log"
	"strings"
)

// LogNotifier implements the Notifier interface by writing to the standard logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier writing to logger, or to the standard logger when nil.
func NewLogNotifier(logger *log.Logger) model.Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the subject followed by each line of the body.
func (n *LogNotifier) Send(subject, body string) error {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) == 1 {
		n.logger.Printf("[%s] %s", subject, lines[0])
		return nil
	}
	n.logger.Printf("[%s]", subject)
	for _, line := range lines {
		n.logger.Printf("  %s", line)
	}
	return nil
}

// Discard is a Notifier that drops every notification.
type Discard struct{}

// Send does nothing.
func (Discard) Send(subject, body string) error { return nil }
