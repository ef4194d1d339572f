// Package audit moves login audit events off the request path.
//
// A [Dispatcher] owns a bounded queue and one delivery goroutine. Events are
// stamped with a timestamp when the emitter left it zero, and metadata keys
// that look like they name a submitted factor (password, token, otp and
// similar) are removed before the event is queued. Sinks ([ChannelSink],
// [JSONWriterSink], [MultiSink], [NoOpSink]) only ever see scrubbed copies.
//
// The Engine decides which events exist. This package never imports mfabridge
// or a sibling internal package, and does no I/O beyond what a Sink does.
package audit
