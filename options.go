package authority

import "log/slog"

// Option configures an Authority during construction.
type Option func(*Authority)

// WithEventSink sets the sink receiving lifecycle events. Unlike
// SetEventSink, a sink configured here is installed before construction
// finishes and therefore observes the initialized event.
func WithEventSink(sink EventSink) Option {
	return func(a *Authority) {
		a.sink = sink
	}
}

// WithLogger sets the logger for engine diagnostics. Per-check decisions
// log at Debug. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authority) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithResolver sets the TypeResolver that derives resource type names
// from values passed to Value. Defaults to ResolveTypeName.
func WithResolver(resolver TypeResolver) Option {
	return func(a *Authority) {
		if resolver != nil {
			a.resolver = resolver
		}
	}
}
