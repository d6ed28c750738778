package authority

import (
	"fmt"

	"github.com/google/uuid"
)

// Behavior determines the outcome when a rule applies.
type Behavior int

const (
	// Privilege grants the action when the rule applies.
	Privilege Behavior = iota
	// Restriction denies the action when the rule applies.
	Restriction
)

// String returns "allow" for Privilege and "deny" for Restriction.
func (b Behavior) String() string {
	switch b {
	case Privilege:
		return "allow"
	case Restriction:
		return "deny"
	default:
		return fmt.Sprintf("behavior(%d)", int(b))
	}
}

// Predicate is a condition attached to a rule. It receives the evaluation
// context and the resource value under check (nil when the check names a
// type without a value) and reports whether the rule applies. Multiple
// predicates on one rule combine with AND semantics.
//
// Predicates must be pure with respect to engine state: they may read the
// context but must not mutate the engine. A predicate that needs the
// current principal reads it via EvalContext.User.
type Predicate func(ctx *EvalContext, value any) bool

// EvalContext carries the evaluation state visible to predicates. It is a
// snapshot taken at the start of a check, so predicates observe a stable
// principal even while other goroutines mutate the engine.
type EvalContext struct {
	user         any
	action       string
	resourceType string
}

// User returns the principal the check runs as.
func (c *EvalContext) User() any { return c.user }

// Action returns the action name being checked, before alias expansion.
func (c *EvalContext) Action() string { return c.action }

// ResourceType returns the resolved resource type name being checked.
func (c *EvalContext) ResourceType() string { return c.resourceType }

// Rule is a single authorization rule: a behavior (allow or deny), an
// action name, a resource type name, and zero or more predicates. Rules
// are created through Authority.Allow and Authority.Deny and are immutable
// afterwards, except for predicate appension via When.
type Rule struct {
	id           string
	behavior     Behavior
	action       string
	resourceType string
	predicates   []Predicate
}

// newRule constructs a rule with a generated UUID.
func newRule(behavior Behavior, action, resourceType string, conditions []Predicate) *Rule {
	return &Rule{
		id:           uuid.New().String(),
		behavior:     behavior,
		action:       action,
		resourceType: resourceType,
		predicates:   append([]Predicate(nil), conditions...),
	}
}

// ID returns the rule's unique identifier.
func (r *Rule) ID() string { return r.id }

// Behavior returns the rule's behavior.
func (r *Rule) Behavior() Behavior { return r.behavior }

// Action returns the action name the rule was declared for. Aliases are
// stored as-is; expansion happens at check time, not at rule creation.
func (r *Rule) Action() string { return r.action }

// ResourceType returns the resource type name the rule was declared for,
// possibly the ResourceAll sentinel.
func (r *Rule) ResourceType() string { return r.resourceType }

// IsPrivilege reports whether a matching rule grants the action.
func (r *Rule) IsPrivilege() bool { return r.behavior == Privilege }

// When appends a predicate to the rule and returns the rule for chaining.
// It must be called while the rule is still being built: appending after
// the rule has been consulted by a concurrent reader is not synchronized.
func (r *Rule) When(p Predicate) *Rule {
	r.predicates = append(r.predicates, p)
	return r
}

// MatchesAction reports whether the rule was declared for exactly the
// given action name.
func (r *Rule) MatchesAction(action string) bool {
	return r.action == action
}

// MatchesAnyAction reports whether the rule's action is one of the given
// names. Callers pass an alias-expanded action set.
func (r *Rule) MatchesAnyAction(actions ...string) bool {
	for _, a := range actions {
		if r.action == a {
			return true
		}
	}
	return false
}

// MatchesResource reports whether the rule covers the given resource type,
// either by exact name or via the ResourceAll sentinel.
func (r *Rule) MatchesResource(resourceType string) bool {
	return r.resourceType == ResourceAll || r.resourceType == resourceType
}

// IsRelevant reports whether the rule matches the resource type and any of
// the given action names. Relevance ignores predicates; it is the filter
// applied before evaluation.
func (r *Rule) IsRelevant(resourceType string, actions ...string) bool {
	return r.MatchesAnyAction(actions...) && r.MatchesResource(resourceType)
}

// Applies reports whether every predicate passes for the given context and
// resource value. A rule with no predicates always applies.
func (r *Rule) Applies(ctx *EvalContext, value any) bool {
	for _, p := range r.predicates {
		if !p(ctx, value) {
			return false
		}
	}
	return true
}
