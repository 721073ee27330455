// Package eventsink forwards structured operational events to zero or
// more outbound channels. The sink is emit-only: the core never observes
// a reply, and a channel's delivery failure never fails the caller.
package eventsink

// Kind is the closed set of event kinds the pipeline ever emits.
type Kind string

const (
	KindSyncStart         Kind = "sync_start"
	KindSyncSuccess       Kind = "sync_success"
	KindSyncPartial       Kind = "sync_partial"
	KindSyncFailure       Kind = "sync_failure"
	KindIndicatorStart    Kind = "indicator_start"
	KindIndicatorSuccess  Kind = "indicator_success"
	KindIndicatorFailure  Kind = "indicator_failure"
	KindHealth            Kind = "health"
)

// Level is the closed set of event severities.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Event is the sink's single input shape: {service, kind, level, message,
// details, metrics, timestamp_ms}.
type Event struct {
	Service     string
	Kind        Kind
	Level       Level
	Message     string
	Details     map[string]any
	Metrics     map[string]float64
	TimestampMs int64
}

// Sink accepts structured events and forwards them to zero or more
// outbound channels. Emit never blocks the caller on delivery and never
// returns an error: failures are the channel's concern, logged and
// swallowed there.
type Sink interface {
	Emit(e Event)
}
