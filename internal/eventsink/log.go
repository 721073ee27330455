package eventsink

import "github.com/sirupsen/logrus"

// LogChannel always fires, regardless of webhook configuration, mirroring
// the "log locally first, remote delivery is best-effort" posture the
// monitor client uses.
type LogChannel struct {
	logger *logrus.Logger
}

func NewLogChannel(logger *logrus.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Emit(e Event) {
	fields := logrus.Fields{
		"kind":    e.Kind,
		"service": e.Service,
		"ts_ms":   e.TimestampMs,
	}
	for k, v := range e.Details {
		fields["detail."+k] = v
	}
	for k, v := range e.Metrics {
		fields["metric."+k] = v
	}

	entry := c.logger.WithFields(fields)
	switch e.Level {
	case LevelWarn:
		entry.Warn(e.Message)
	case LevelError:
		entry.Error(e.Message)
	case LevelCritical:
		entry.Error(e.Message)
	default:
		entry.Info(e.Message)
	}
}
