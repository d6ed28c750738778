package authority

// Event names emitted by the engine.
const (
	// EventInitialized fires once from New. Payload: "user".
	EventInitialized = "authority.initialized"
	// EventRuleAdded fires on Allow and Deny. Payload: "rule" (ID),
	// "behavior", "action", "resource".
	EventRuleAdded = "authority.rule_added"
	// EventAliasAdded fires on AddAlias. Payload: "alias", "actions".
	EventAliasAdded = "authority.alias_added"
	// EventUserChanged fires on SetCurrentUser. Payload: "user".
	EventUserChanged = "authority.user_changed"
	// EventChecked fires on every Can, Cannot, and Explain. Payload:
	// "action", "resource", "allowed", "rule" (ID, empty on default
	// deny), "duration" (time.Duration).
	EventChecked = "authority.checked"
)

// Event is an engine lifecycle notification.
type Event struct {
	// Name identifies what happened, e.g. EventInitialized.
	Name string
	// Payload carries event-specific fields.
	Payload map[string]any
}

// EventSink receives engine lifecycle events. Notification is
// fire-and-forget: the engine consumes no result and does not recover
// sink panics. Notify runs outside engine locks and may be called from
// multiple goroutines at once; sinks synchronize their own state.
type EventSink interface {
	Notify(Event)
}

// EventSinkFunc adapts a plain function to the EventSink interface.
type EventSinkFunc func(Event)

// Notify calls f(e).
func (f EventSinkFunc) Notify(e Event) { f(e) }

// MultiSink returns a sink that fans each event out to every given sink
// in order. Nil sinks are skipped.
func MultiSink(sinks ...EventSink) EventSink {
	ms := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

type multiSink []EventSink

func (ms multiSink) Notify(e Event) {
	for _, s := range ms {
		s.Notify(e)
	}
}
