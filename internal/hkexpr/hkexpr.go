// Package hkexpr evaluates mission-defined derived housekeeping parameters
// (e.g. "bus_voltage * bus_current" for a power estimate) against a sample
// of raw HK values, using expr-lang so derivations are data, not Go code
// that needs a rebuild to change.
package hkexpr

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Definition names one derived parameter and the expression that computes
// it in terms of the raw parameter names sampled alongside it.
type Definition struct {
	Name string
	Expr string
}

// Evaluator holds one compiled program per Definition. Compilation happens
// once at construction so a malformed expression is caught at startup, not
// on the first HK cycle that needs it.
type Evaluator struct {
	order    []string
	programs map[string]*vm.Program
}

// NewEvaluator compiles every definition. Definitions may reference earlier
// definitions' names in addition to raw sample keys — Evaluate resolves them
// in the order given, so list prerequisites first.
func NewEvaluator(defs []Definition) (*Evaluator, error) {
	e := &Evaluator{programs: make(map[string]*vm.Program, len(defs))}
	for _, d := range defs {
		program, err := expr.Compile(d.Expr, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("hkexpr: compile %q: %w", d.Name, err)
		}
		e.order = append(e.order, d.Name)
		e.programs[d.Name] = program
	}
	return e, nil
}

// Evaluate runs every compiled definition against samples (raw HK parameter
// name -> value) and returns a map containing samples plus every derived
// value, keyed by definition name. A definition whose expression errors
// (e.g. a divide by a raw parameter that wasn't sampled this cycle) is
// omitted from the result rather than aborting the whole HK cycle.
func (e *Evaluator) Evaluate(samples map[string]float64) (map[string]float64, error) {
	env := make(map[string]interface{}, len(samples)+len(e.order))
	for k, v := range samples {
		env[k] = v
	}

	out := make(map[string]float64, len(samples)+len(e.order))
	for k, v := range samples {
		out[k] = v
	}

	var firstErr error
	for _, name := range e.order {
		result, err := expr.Run(e.programs[name], env)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("hkexpr: evaluate %q: %w", name, err)
			}
			continue
		}
		f, err := toFloat64(result)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("hkexpr: %q did not produce a number: %w", name, err)
			}
			continue
		}
		env[name] = f
		out[name] = f
	}
	return out, firstErr
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported result type %T", v)
	}
}
