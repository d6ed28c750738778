// Package cel compiles Common Expression Language conditions into
// authority predicates.
//
// A condition sees four variables: user (the engine principal), resource
// (the value under check, null on type-only checks), action, and
// resource_type (strings). Values cross into CEL through its standard
// type adapter, so principals and resources expressed as maps or
// primitives work out of the box; hosts with struct types register them
// via extra environment options:
//
//	eval, err := cel.NewEvaluator(ext.NativeTypes(reflect.TypeOf(Article{})))
//	pred, err := eval.Condition(`resource.Owner == user`)
//	auth.Allow("edit", "Article", pred)
//
// Conditions fail closed: an expression that errors at evaluation time,
// times out, or yields a non-boolean denies the rule it guards.
package cel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/relaxsd/authority"
)

// maxExpressionLength is the maximum allowed length for condition sources.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit per evaluation.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout bounds a single condition evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) timeout
// cancellation is checked.
const interruptCheckFreq = 100

// Evaluator compiles conditions against a fixed CEL environment. It is
// safe for concurrent use once constructed.
type Evaluator struct {
	env *cel.Env
}

// NewEnvironment creates the CEL environment conditions compile against:
// the four condition variables plus the strings and sets extension
// libraries. Extra options extend it, e.g. ext.NativeTypes for struct
// resources or cel.Function for host helpers.
func NewEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	base := []cel.EnvOption{
		ext.Strings(),
		ext.Sets(),
		cel.Variable("user", cel.DynType),
		cel.Variable("resource", cel.DynType),
		cel.Variable("action", cel.StringType),
		cel.Variable("resource_type", cel.StringType),
	}
	return cel.NewEnv(append(base, opts...)...)
}

// NewEvaluator creates an evaluator with the condition environment.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := NewEnvironment(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create condition environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Condition compiles an expression into a predicate. Compilation happens
// once, up front; the returned predicate only evaluates the pre-compiled
// program. Evaluation faults deny rather than propagate.
func (e *Evaluator) Condition(expr string) (authority.Predicate, error) {
	if err := checkSource(expr); err != nil {
		return nil, err
	}
	prg, err := e.compile(expr)
	if err != nil {
		return nil, err
	}

	return func(ctx *authority.EvalContext, value any) bool {
		return evalProgram(prg, ctx, value)
	}, nil
}

// Validate checks that an expression is syntactically valid and within
// the safety limits, without building a predicate. Useful before
// accepting condition sources from configuration.
func (e *Evaluator) Validate(expr string) error {
	if err := checkSource(expr); err != nil {
		return err
	}
	if _, err := e.compile(expr); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}
	return nil
}

// compile parses and type-checks the expression, returning a program with
// the cost and interrupt limits applied.
func (e *Evaluator) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	return prg, nil
}

// checkSource enforces the source-level safety limits.
func checkSource(expr string) error {
	if expr == "" {
		return errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	return validateNesting(expr)
}

// validateNesting checks that the expression does not exceed the maximum
// allowed nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// evalProgram runs a compiled program with the condition variables bound
// from the evaluation context. ContextEval with a timeout prevents
// indefinite evaluation hangs. Any fault or non-boolean result denies.
func evalProgram(prg cel.Program, ctx *authority.EvalContext, value any) bool {
	activation := map[string]any{
		"user":          ctx.User(),
		"resource":      value,
		"action":        ctx.Action(),
		"resource_type": ctx.ResourceType(),
	}

	cctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(cctx, activation)
	if err != nil {
		return false
	}

	allowed, ok := result.Value().(bool)
	return ok && allowed
}

// Default evaluator for the package-level helpers, built on first use.
var (
	defaultOnce sync.Once
	defaultEval *Evaluator
	defaultErr  error
)

func defaultEvaluator() (*Evaluator, error) {
	defaultOnce.Do(func() {
		defaultEval, defaultErr = NewEvaluator()
	})
	return defaultEval, defaultErr
}

// Condition compiles an expression against the default environment.
func Condition(expr string) (authority.Predicate, error) {
	e, err := defaultEvaluator()
	if err != nil {
		return nil, fmt.Errorf("default condition environment: %w", err)
	}
	return e.Condition(expr)
}

// MustCondition is Condition that panics on error. Use it for condition
// literals known valid at build time.
func MustCondition(expr string) authority.Predicate {
	pred, err := Condition(expr)
	if err != nil {
		panic(err)
	}
	return pred
}
