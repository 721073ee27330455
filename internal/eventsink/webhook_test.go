package eventsink

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPayloadGenericShape(t *testing.T) {
	c := NewWebhookChannel("https://hooks.example.com/abc", logrus.New())
	payload := c.formatPayload(Event{
		Service:     "ingestd",
		Kind:        KindSyncSuccess,
		Level:       LevelInfo,
		Message:     "tick ok",
		TimestampMs: 1_700_000_000_000,
		Details:     map[string]any{"tick_id": "t1"},
		Metrics:     map[string]float64{"rows_written": 3},
	})

	assert.Equal(t, "ingestd", payload["service"])
	assert.Equal(t, string(KindSyncSuccess), payload["kind"])
	assert.Equal(t, string(LevelInfo), payload["level"])
	assert.Equal(t, "tick ok", payload["message"])
	assert.NotContains(t, payload, "content")
}

func TestFormatPayloadDiscordShape(t *testing.T) {
	c := NewWebhookChannel("https://discord.com/api/webhooks/abc/def", logrus.New())
	payload := c.formatPayload(Event{
		Service: "indicatord",
		Kind:    KindIndicatorFailure,
		Level:   LevelError,
		Message: "boom",
	})

	require.Contains(t, payload, "content")
	require.Contains(t, payload, "embeds")
	content, ok := payload["content"].(string)
	require.True(t, ok)
	assert.Contains(t, content, "boom")
}

func TestEmitWithNoURLIsANoop(t *testing.T) {
	c := NewWebhookChannel("", logrus.New())
	assert.NotPanics(t, func() {
		c.Emit(Event{Kind: KindHealth})
	})
}
