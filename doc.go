// Package authority implements an embedded rule-based authorization
// engine: given a principal, an action name, and a target resource, it
// decides whether the action is permitted. It is a synchronous, in-process
// decision function with no network, storage, or persistence concerns.
//
// Rules pair a behavior (allow or deny) with an action name, a resource
// type name, and optional predicates. A check scans the rules relevant to
// its action and resource type most-recently-added first; the first rule
// whose predicates all pass decides the outcome, and if no rule applies
// the check is denied. Declare broad defaults first and specific
// exceptions later: exceptions win because they are newer, with no
// specificity scoring involved.
//
// Quick start:
//
//	auth := authority.New(user)
//	auth.Allow("read", "Article")
//	auth.Deny("read", "Article", func(ctx *authority.EvalContext, value any) bool {
//		article, ok := value.(Article)
//		return ok && article.Archived
//	})
//
//	auth.Can("read", authority.Type("Article")) // true
//	auth.Can("read", authority.Value(archived)) // false
//
// The target of a check is a Resource reference: Type names a resource
// type, Value carries a concrete value whose type name is resolved at
// check time, and Instance combines an explicit type name with a value
// for predicates to inspect.
//
// Action aliases broaden matching without duplicating rules. After
// AddAlias("manage", "create", "update", "delete"), a rule declared for
// "manage" is relevant to checks on any of those actions. Expansion is
// exactly one level deep, never recursive.
//
// An Authority is safe for concurrent use, with one caveat: Rule.When
// appends a predicate without synchronization and must only be called
// while the rule set is still being built, before other goroutines run
// checks against it.
package authority
