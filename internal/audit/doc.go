// Package audit relays security-relevant events from the engine to a sink
// without blocking request handling.
//
// # Components
//
//   - [Sink]: event consumer. Channel, JSON-lines writer, slog and no-op sinks ship here.
//   - [Dispatcher]: buffered async relay. Emit never blocks; overflow is dropped and counted.
//   - [Event]: one audit record.
//
// # What this package must NOT do
//
//   - Decide which events to emit. The Engine and flow functions own that.
//   - Import goShop or any sibling internal package.
package audit
