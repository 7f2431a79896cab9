package txpipeline

import (
	"github.com/sirupsen/logrus"

	"certchain/internal/chain"
)

// Reporter receives pipeline status events
type Reporter interface {
	Report(ev StatusEvent)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(ev StatusEvent)

func (f ReporterFunc) Report(ev StatusEvent) { f(ev) }

// MultiReporter fans each event out in order
type MultiReporter []Reporter

func (m MultiReporter) Report(ev StatusEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// LogReporter writes status events to a logrus entry
type LogReporter struct {
	logger *logrus.Entry
}

// NewLogReporter creates a reporter that logs every stage
func NewLogReporter(logger *logrus.Entry) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ev StatusEvent) {
	entry := r.logger.WithFields(logrus.Fields{
		"op":      ev.OperationID,
		"kind":    ev.Kind,
		"subject": ev.Subject,
		"stage":   ev.Stage,
	})
	if ev.TxHash != "" {
		entry = entry.WithField("tx", ev.TxHash)
	}
	switch ev.Level {
	case chain.LevelError:
		entry.Error(ev.Message)
	case chain.LevelWarning:
		entry.Warn(ev.Message)
	default:
		entry.Info(ev.Message)
	}
}
