// Package dispatch routes request envelopes to handlers.
//
// A Dispatcher owns a HandlerSet with one handler per case. Dispatch runs
// a synchronous request on the calling goroutine, DispatchAsync runs an
// asynchronous request on its own goroutine and reports the result through
// a Completion that is invoked exactly once. Handler panics are recovered
// and reported as errors with CodeHandlerPanic, a panicking handler never
// takes down the process or a later call.
//
// Memoize wraps a handler so its responses are stored in the cache and
// served from there when the handler fails.
//
// Calls are counted with github.com/VictoriaMetrics/metrics:
//
//	logic_calls_total{mode,case}
//	logic_call_errors_total{mode,code}
//	logic_call_duration_seconds{mode}
//	logic_async_inflight
package dispatch
