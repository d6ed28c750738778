package authority

// Alias is a named group of action identifiers. Declaring a rule for the
// alias name makes it relevant to checks on any of the contained actions.
// Alias names and raw action names share one namespace: to rule matching,
// an alias is just another action name.
type Alias struct {
	// Name is the action name rules use to reference the group.
	Name string
	// Actions are the concrete action names the alias covers, in
	// registration order with duplicates removed.
	Actions []string
}

// Covers reports whether the alias contains the given action name.
func (a Alias) Covers(action string) bool {
	for _, act := range a.Actions {
		if act == action {
			return true
		}
	}
	return false
}

// clone returns a copy whose Actions slice callers may hold.
func (a Alias) clone() Alias {
	return Alias{Name: a.Name, Actions: append([]string(nil), a.Actions...)}
}

// aliasRegistry stores aliases by name. Registration order is preserved
// for listing and expansion; re-registering a name replaces its definition
// in place without changing its position. Not safe for concurrent use; the
// engine serializes access.
type aliasRegistry struct {
	byName map[string]Alias
	order  []string
}

func newAliasRegistry() *aliasRegistry {
	return &aliasRegistry{byName: make(map[string]Alias)}
}

// add registers or overwrites an alias. Duplicate action names are
// dropped, keeping the first occurrence.
func (r *aliasRegistry) add(name string, actions []string) Alias {
	deduped := make([]string, 0, len(actions))
	seen := make(map[string]struct{}, len(actions))
	for _, act := range actions {
		if _, ok := seen[act]; ok {
			continue
		}
		seen[act] = struct{}{}
		deduped = append(deduped, act)
	}

	if _, ok := r.byName[name]; !ok {
		r.order = append(r.order, name)
	}
	a := Alias{Name: name, Actions: deduped}
	r.byName[name] = a
	return a.clone()
}

// get looks up an alias by name.
func (r *aliasRegistry) get(name string) (Alias, bool) {
	a, ok := r.byName[name]
	if !ok {
		return Alias{}, false
	}
	return a.clone(), true
}

// all returns every alias in registration order.
func (r *aliasRegistry) all() []Alias {
	out := make([]Alias, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].clone())
	}
	return out
}

// expandForAction returns the action set a query for the given action must
// match against: the action itself, then every alias that directly covers
// it, in registration order. Expansion is exactly one level deep. An alias
// covering another alias's name does not pull in that alias's actions;
// only direct containment of the queried action counts.
func (r *aliasRegistry) expandForAction(action string) []string {
	expanded := []string{action}
	for _, name := range r.order {
		if name == action {
			// Already present as the queried action itself.
			continue
		}
		if r.byName[name].Covers(action) {
			expanded = append(expanded, name)
		}
	}
	return expanded
}
