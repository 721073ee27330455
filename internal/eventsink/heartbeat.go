package eventsink

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pinger is the narrow interface the heartbeat needs from the store
// gateway: a cheap liveness probe it can time and report on.
type Pinger interface {
	HealthCheck() error
}

// Heartbeat periodically emits a `health` event carrying DB ping latency
// and process uptime: a robfig/cron job registered alongside, but
// independent of, the component's own tick loop.
type Heartbeat struct {
	service   string
	sink      Sink
	pinger    Pinger
	logger    *logrus.Logger
	cron      *cron.Cron
	startedAt time.Time
}

func NewHeartbeat(service string, sink Sink, pinger Pinger, logger *logrus.Logger) *Heartbeat {
	return &Heartbeat{
		service: service,
		sink:    sink,
		pinger:  pinger,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start registers the heartbeat job at the given interval and begins
// running it. The cron `@every` schedule truncates interval to whole
// seconds and raises anything under one second to one second.
func (h *Heartbeat) Start(interval time.Duration) error {
	h.startedAt = time.Now()
	spec := "@every " + interval.String()
	_, err := h.cron.AddFunc(spec, h.beat)
	if err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

func (h *Heartbeat) Stop() {
	h.cron.Stop()
}

func (h *Heartbeat) beat() {
	start := time.Now()
	err := h.pinger.HealthCheck()
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	level := LevelInfo
	message := "health check ok"
	if err != nil {
		level = LevelError
		message = "health check failed: " + err.Error()
	}

	h.sink.Emit(Event{
		Service:     h.service,
		Kind:        KindHealth,
		Level:       level,
		Message:     message,
		TimestampMs: time.Now().UnixMilli(),
		Metrics: map[string]float64{
			"db_ping_ms":  latencyMs,
			"uptime_s":    time.Since(h.startedAt).Seconds(),
		},
	})
}
