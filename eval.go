package xlcalc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultTimeout bounds a single evaluation run unless overridden with
// WithTimeout.
const DefaultTimeout = 10 * time.Second

// Evaluator executes a generated script and reads back the value bound to
// one cell's identifier.
type Evaluator interface {
	Evaluate(ctx context.Context, script *Script, target CellRef) (any, error)
}

// exprEvaluator implements Evaluator using expr-lang/expr. Compiled
// programs are cached by source text; every run gets its own environment
// map, so concurrent evaluations share no bindings.
type exprEvaluator struct {
	timeout time.Duration
	env     map[string]any
	cache   sync.Map // script source → compiled *vm.Program
}

// NewEvaluator creates an evaluator backed by expr-lang/expr. A nil env
// uses the default runtime function table; a zero timeout disables the
// run bound.
func NewEvaluator(timeout time.Duration, env map[string]any) Evaluator {
	if env == nil {
		env = baseEnv()
	}
	return &exprEvaluator{timeout: timeout, env: env}
}

func (e *exprEvaluator) Evaluate(ctx context.Context, script *Script, target CellRef) (any, error) {
	if !script.Has(target) {
		return nil, &EvaluationError{Ref: target, Message: "cell has no binding in the generated source"}
	}
	// The program's value is its final expression, so the target's
	// identifier is appended to read its binding back.
	src := script.Source() + script.Ident(target) + "\n"
	program, err := e.compile(src)
	if err != nil {
		return nil, &EvaluationError{Ref: target, Message: fmt.Sprintf("compile generated source: %v", err)}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := expr.Run(program, e.runEnv())
		done <- outcome{value, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &EvaluationError{Ref: target, Message: r.err.Error()}
		}
		return r.value, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &EvaluationError{Ref: target, Message: fmt.Sprintf("evaluation timed out after %s", e.timeout)}
		}
		return nil, &EvaluationError{Ref: target, Message: ctx.Err().Error()}
	}
}

func (e *exprEvaluator) compile(src string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(src); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(src, expr.Env(e.env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.cache.Store(src, program)
	return program, nil
}

func (e *exprEvaluator) runEnv() map[string]any {
	env := make(map[string]any, len(e.env))
	for k, v := range e.env {
		env[k] = v
	}
	return env
}
