package goShop

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/goShop/internal/audit"
)

// AuditEvent is one security-relevant record emitted by the Engine.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink that buffers events on a channel.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink that logs each event through logger.
func NewSlogSink(logger *slog.Logger) *audit.SlogSink {
	return audit.NewSlogSink(logger)
}
