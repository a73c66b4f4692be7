package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Scope holds the named variable groups available to workflow expressions.
type Scope struct {
	vars map[string]cty.Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]cty.Value)}
}

// SetStringMap exposes a string map as an object variable, e.g. the `matrix`
// or `env` group. An empty map still produces an (empty) object so lookups
// fail with a clear "object has no attribute" diagnostic rather than an
// unknown-variable one.
func (s *Scope) SetStringMap(name string, values map[string]string) *Scope {
	attrs := make(map[string]cty.Value, len(values))
	for k, v := range values {
		attrs[k] = cty.StringVal(v)
	}
	s.vars[name] = cty.ObjectVal(attrs)
	return s
}

// Set exposes a pre-built cty value under the given name.
func (s *Scope) Set(name string, v cty.Value) *Scope {
	s.vars[name] = v
	return s
}

// EvalContext materializes the scope for HCL evaluation.
func (s *Scope) EvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Variables: s.vars}
}
