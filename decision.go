package authority

// Decision is the outcome of a permission check, with the rule that
// produced it. Can returns only the boolean; Explain returns the full
// decision for callers that trace or surface denial reasons.
type Decision struct {
	// Allowed is true if the action is permitted.
	Allowed bool
	// Action is the checked action name, before alias expansion.
	Action string
	// Resource is the resolved resource type name. Empty when the
	// resource value could not be resolved.
	Resource string
	// Rule is the rule that decided the outcome, nil on the default
	// deny path.
	Rule *Rule
	// Reason explains why the decision was made.
	Reason string
}
