package xlcalc

import (
	"strings"
	"time"
)

// Options holds configuration for a Book.
type Options struct {
	timeout   time.Duration
	evaluator Evaluator
	functions map[string]any
}

func defaultOptions() *Options {
	return &Options{
		timeout: DefaultTimeout,
	}
}

// Option configures a Book.
type Option func(*Options)

// WithTimeout bounds a single evaluation run (default: 10s). A zero or
// negative duration disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.timeout = d }
}

// WithEvaluator replaces the default expr-lang/expr evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(o *Options) { o.evaluator = e }
}

// WithFunction registers a spreadsheet function under name (upper-cased,
// the way formulas spell it). impl is called by the evaluation engine with
// the formula's arguments in order; range arguments arrive as sequences.
// Registering a name from the built-in table overrides it.
func WithFunction(name string, impl any) Option {
	return func(o *Options) {
		if o.functions == nil {
			o.functions = make(map[string]any)
		}
		o.functions[strings.ToUpper(name)] = impl
	}
}
