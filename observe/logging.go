package observe

import (
	"log/slog"

	"github.com/relaxsd/authority"
)

// Logging is an event sink that writes each engine event as a structured
// log record. Lifecycle events (initialized, rule added, alias added, user
// changed) log at Info; per-check events log at Debug to keep hot paths
// quiet under the default level.
type Logging struct {
	logger *slog.Logger
}

// NewLogging builds a sink over the given logger. A nil logger uses
// slog.Default.
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger}
}

// Notify logs the event with its payload fields as attributes.
func (l *Logging) Notify(e authority.Event) {
	attrs := make([]any, 0, 2*len(e.Payload)+2)
	attrs = append(attrs, "event", e.Name)
	for k, v := range e.Payload {
		attrs = append(attrs, k, v)
	}

	if e.Name == authority.EventChecked {
		l.logger.Debug("permission checked", attrs...)
		return
	}
	l.logger.Info("authority event", attrs...)
}

var _ authority.EventSink = (*Logging)(nil)
