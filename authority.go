package authority

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Authority is the rule-based authorization engine. It owns one rule
// store, one alias registry, and one relevance cache, and answers "can
// this principal do X to Y" by scanning relevant rules most-recently-added
// first: the first rule whose predicates all pass decides, and if none
// applies the check is denied.
//
// An Authority is safe for concurrent use. Mutators take a write lock;
// checks snapshot engine state under a read lock and evaluate predicates
// and notify sinks outside of it.
type Authority struct {
	mu      sync.RWMutex
	user    any
	rules   ruleStore
	aliases *aliasRegistry
	cache   *relevanceCache
	sink    EventSink

	// Set at construction, immutable afterwards.
	resolver TypeResolver
	logger   *slog.Logger
}

// New creates an engine that evaluates checks as the given principal. The
// principal is opaque to the engine; predicates read it through
// EvalContext.User. On return the initialized event has been delivered to
// the sink configured via WithEventSink.
func New(currentUser any, opts ...Option) *Authority {
	a := &Authority{
		user:     currentUser,
		aliases:  newAliasRegistry(),
		cache:    newRelevanceCache(),
		resolver: ResolveTypeName,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.logger.Info("authority initialized", "user", currentUser)
	notify(a.sink, Event{Name: EventInitialized, Payload: map[string]any{"user": currentUser}})
	return a
}

// Allow appends a rule granting the action on the resource type. Optional
// conditions become the rule's initial predicates; more can be chained
// with When before the rule is consulted.
func (a *Authority) Allow(action, resource string, conditions ...Predicate) *Rule {
	r := newRule(Privilege, action, resource, conditions)
	a.addRule(r)
	return r
}

// Deny appends a rule forbidding the action on the resource type. Because
// later rules win, a Deny added after a broad Allow carves an exception
// out of it.
func (a *Authority) Deny(action, resource string, conditions ...Predicate) *Rule {
	r := newRule(Restriction, action, resource, conditions)
	a.addRule(r)
	return r
}

// addRule appends to the store and drops cached relevance lists, which may
// be missing the new rule.
func (a *Authority) addRule(r *Rule) {
	a.mu.Lock()
	a.rules.add(r)
	a.cache.clear()
	sink := a.sink
	total := a.rules.len()
	a.mu.Unlock()

	a.logger.Debug("rule added",
		"rule", r.id,
		"behavior", r.behavior,
		"action", r.action,
		"resource", r.resourceType,
		"total_rules", total,
	)
	notify(sink, Event{Name: EventRuleAdded, Payload: map[string]any{
		"rule":     r.id,
		"behavior": r.behavior.String(),
		"action":   r.action,
		"resource": r.resourceType,
	}})
}

// AddAlias registers an alias covering the given actions. Re-registering
// a name replaces its definition; rules referencing the name are matched
// against the new definition on subsequent checks. Registration drops
// cached relevance lists, since expansion feeds the relevance filter.
func (a *Authority) AddAlias(name string, actions ...string) Alias {
	a.mu.Lock()
	alias := a.aliases.add(name, actions)
	a.cache.clear()
	sink := a.sink
	a.mu.Unlock()

	a.logger.Debug("alias added", "alias", name, "actions", alias.Actions)
	notify(sink, Event{Name: EventAliasAdded, Payload: map[string]any{
		"alias":   name,
		"actions": append([]string(nil), alias.Actions...),
	}})
	return alias
}

// SetCurrentUser replaces the principal for subsequent checks. Checks
// already in flight keep the principal they snapshotted.
func (a *Authority) SetCurrentUser(user any) {
	a.mu.Lock()
	a.user = user
	sink := a.sink
	a.mu.Unlock()

	a.logger.Debug("current user changed", "user", user)
	notify(sink, Event{Name: EventUserChanged, Payload: map[string]any{"user": user}})
}

// CurrentUser returns the principal checks evaluate as.
func (a *Authority) CurrentUser() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// SetEventSink replaces the sink receiving lifecycle events. A nil sink
// disables notification.
func (a *Authority) SetEventSink(sink EventSink) {
	a.mu.Lock()
	a.sink = sink
	a.mu.Unlock()
}

// Can reports whether the current principal may perform the action on the
// resource.
func (a *Authority) Can(action string, res Resource) bool {
	return a.Explain(action, res).Allowed
}

// Cannot is the negation of Can.
func (a *Authority) Cannot(action string, res Resource) bool {
	return !a.Can(action, res)
}

// Explain runs the same evaluation as Can and returns the full decision,
// including the rule that produced it and a human-readable reason.
func (a *Authority) Explain(action string, res Resource) Decision {
	start := time.Now()

	a.mu.RLock()
	user := a.user
	sink := a.sink
	a.mu.RUnlock()

	decision := Decision{Action: action}

	resourceType, value, resolveErr := a.resolveResource(res)
	if resolveErr != nil {
		// Default-deny on uncertainty: an unresolvable value matches
		// no rule.
		decision.Reason = "unresolvable resource (default deny)"
		a.logger.Debug("resource resolution failed", "action", action, "resource", res.String(), "error", resolveErr)
	} else {
		decision.Resource = resourceType
		ctx := &EvalContext{user: user, action: action, resourceType: resourceType}
		rules := a.relevantRules(action, resourceType)

		// Most-recently-added relevant rule first; the first rule
		// whose predicates all pass decides.
		for i := len(rules) - 1; i >= 0; i-- {
			r := rules[i]
			if !r.Applies(ctx, value) {
				continue
			}
			decision.Allowed = r.IsPrivilege()
			decision.Rule = r
			decision.Reason = fmt.Sprintf("matched %s rule for %s on %s", r.behavior, r.action, r.resourceType)
			break
		}
		if decision.Rule == nil {
			decision.Reason = "no relevant rule applied (default deny)"
		}
	}

	elapsed := time.Since(start)
	ruleID := ""
	if decision.Rule != nil {
		ruleID = decision.Rule.id
	}
	a.logger.Debug("permission checked",
		"action", action,
		"resource", decision.Resource,
		"allowed", decision.Allowed,
		"rule", ruleID,
		"duration", elapsed,
	)
	notify(sink, Event{Name: EventChecked, Payload: map[string]any{
		"action":   action,
		"resource": decision.Resource,
		"allowed":  decision.Allowed,
		"rule":     ruleID,
		"duration": elapsed,
	}})
	return decision
}

// Rules returns every rule in insertion order.
func (a *Authority) Rules() []*Rule {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rules.all()
}

// RulesFor returns the rules relevant to the action (after alias
// expansion) and resource type, in insertion order. It reads through the
// relevance cache, so repeated calls with no intervening mutation return
// identical contents.
func (a *Authority) RulesFor(action, resourceType string) []*Rule {
	return append([]*Rule(nil), a.relevantRules(action, resourceType)...)
}

// Aliases returns every registered alias in registration order.
func (a *Authority) Aliases() []Alias {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.aliases.all()
}

// Alias looks up an alias by name. Returns ErrAliasNotFound when the name
// was never registered.
func (a *Authority) Alias(name string) (Alias, error) {
	a.mu.RLock()
	alias, ok := a.aliases.get(name)
	a.mu.RUnlock()
	if !ok {
		return Alias{}, fmt.Errorf("alias %q: %w", name, ErrAliasNotFound)
	}
	return alias, nil
}

// AliasesForAction returns the expanded action set for the action: the
// action itself first, then every alias covering it in registration
// order. This is the set a rule's action is matched against during a
// check.
func (a *Authority) AliasesForAction(action string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.aliases.expandForAction(action)
}

// resolveResource normalizes a resource reference into a type name plus
// optional value. Explicitly named references pass through untouched;
// bare values resolve through the configured TypeResolver.
func (a *Authority) resolveResource(res Resource) (string, any, error) {
	switch {
	case res.hasName:
		return res.name, res.value, nil
	case res.hasValue:
		name, err := a.resolver(res.value)
		if err != nil {
			return "", res.value, err
		}
		return name, res.value, nil
	default:
		return "", nil, &UnresolvableResourceError{Cause: fmt.Errorf("empty resource reference")}
	}
}

// relevantRules returns the cached relevance list for the key, filling it
// on a miss. The fill is double-checked under the write lock; concurrent
// fills of the same key compute identical lists, so losing the race only
// costs the duplicate computation.
func (a *Authority) relevantRules(action, resourceType string) []*Rule {
	key := cacheKey(action, resourceType)

	a.mu.RLock()
	rules, ok := a.cache.get(key)
	a.mu.RUnlock()
	if ok {
		return rules
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if rules, ok := a.cache.get(key); ok {
		return rules
	}
	expanded := a.aliases.expandForAction(action)
	rules = a.rules.relevant(resourceType, expanded)
	a.cache.put(key, rules)
	return rules
}

// notify delivers an event to a sink captured under the engine lock.
// Runs outside the lock so sink code never blocks the engine.
func notify(sink EventSink, e Event) {
	if sink != nil {
		sink.Notify(e)
	}
}
