// Package ruleset declares aliases and rules as Go data and applies them
// to an engine in one validated step. It is code-as-data only: there is
// no file format and no serialization, just literals the host compiles
// in.
//
//	rs := ruleset.Ruleset{
//		Aliases: []ruleset.AliasDef{
//			{Name: "manage", Actions: []string{"create", "update", "delete"}},
//		},
//		Rules: []ruleset.Def{
//			{Effect: "allow", Action: "read", Resource: "Article"},
//			{Effect: "deny", Action: "manage", Resource: "Article",
//				Condition: `resource.locked == true`},
//		},
//	}
//	if err := ruleset.Apply(auth, rs); err != nil { ... }
//
// Rule order is precedence order: later definitions win, exactly as with
// direct Allow/Deny calls.
package ruleset

import (
	"fmt"

	"github.com/relaxsd/authority"
	"github.com/relaxsd/authority/cel"
)

// Effect values for Def.
const (
	EffectAllow = "allow"
	EffectDeny  = "deny"
)

// AliasDef declares one alias.
type AliasDef struct {
	// Name is the alias name rules reference.
	Name string `validate:"required,identifier"`
	// Actions are the concrete action names the alias covers.
	Actions []string `validate:"required,min=1,dive,required,identifier"`
}

// Def declares one rule.
type Def struct {
	// Effect is "allow" or "deny".
	Effect string `validate:"required,oneof=allow deny"`
	// Action is the action or alias name the rule is declared for.
	Action string `validate:"required,identifier"`
	// Resource is the resource type name, or "all" for every type.
	Resource string `validate:"required,identifier"`
	// Condition is an optional CEL expression gating the rule. See
	// package cel for the variables a condition can reference.
	Condition string `validate:"omitempty"`
}

// Ruleset is a bulk declaration of aliases and rules.
type Ruleset struct {
	Aliases []AliasDef `validate:"omitempty,dive"`
	Rules   []Def      `validate:"required,min=1,dive"`
}

// Apply validates the ruleset and registers it on the engine: aliases
// first, then rules in declaration order. On a validation or condition
// compilation error nothing is registered; the engine is only mutated
// once the whole set has been checked and every condition compiled.
func Apply(a *authority.Authority, rs Ruleset) error {
	if err := Validate(rs); err != nil {
		return err
	}

	// Compile all conditions before touching the engine.
	conditions := make([]authority.Predicate, len(rs.Rules))
	for i, def := range rs.Rules {
		if def.Condition == "" {
			continue
		}
		pred, err := cel.Condition(def.Condition)
		if err != nil {
			return fmt.Errorf("rules[%d]: condition: %w", i, err)
		}
		conditions[i] = pred
	}

	for _, alias := range rs.Aliases {
		a.AddAlias(alias.Name, alias.Actions...)
	}
	for i, def := range rs.Rules {
		var preds []authority.Predicate
		if conditions[i] != nil {
			preds = append(preds, conditions[i])
		}
		switch def.Effect {
		case EffectAllow:
			a.Allow(def.Action, def.Resource, preds...)
		case EffectDeny:
			a.Deny(def.Action, def.Resource, preds...)
		}
	}
	return nil
}
