// Package stream provides stages over core.Stream.
//
// A stage wraps a stream and forwards every element unchanged while observing
// it on the side. Each range over the wrapped stream is a separate
// subscription with its own observer state, so a stage may be ranged over
// repeatedly, or concurrently, without leaking state between subscriptions.
//
// Termination rules for one subscription:
//   - the upstream ends without error: OnComplete runs once
//   - the upstream yields an error: OnError runs once, the error is forwarded
//     and nothing after it is read
//   - the consumer stops early: neither runs
package stream
