package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

const (
	openMarker  = "${{"
	closeMarker = "}}"
)

// Interpolate replaces every `${{ ... }}` occurrence in input with the result
// of evaluating the inner expression against the scope. Text outside the
// markers passes through untouched, so shell constructs like `${HOME}` inside
// script bodies are never mistaken for expressions.
func Interpolate(input string, scope *Scope) (string, error) {
	if !strings.Contains(input, openMarker) {
		return input, nil
	}

	var out strings.Builder
	rest := input
	for {
		start := strings.Index(rest, openMarker)
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start+len(openMarker):]

		end := strings.Index(rest, closeMarker)
		if end < 0 {
			return "", fmt.Errorf("unterminated expression: missing '%s' after '%s'", closeMarker, openMarker)
		}
		src := strings.TrimSpace(rest[:end])
		rest = rest[end+len(closeMarker):]

		val, err := eval(src, scope)
		if err != nil {
			return "", err
		}
		str, err := valueToString(val)
		if err != nil {
			return "", fmt.Errorf("expression '%s': %w", src, err)
		}
		out.WriteString(str)
	}
}

// InterpolateMap applies Interpolate to every value of a string map,
// returning a new map. A nil input yields a nil output.
func InterpolateMap(in map[string]string, scope *Scope) (map[string]string, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		resolved, err := Interpolate(v, scope)
		if err != nil {
			return nil, fmt.Errorf("value of '%s': %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// eval parses and evaluates a single expression body.
func eval(src string, scope *Scope) (cty.Value, error) {
	parsed, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("parsing expression '%s': %s", src, diags.Error())
	}
	val, diags := parsed.Value(scope.EvalContext())
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("evaluating expression '%s': %s", src, diags.Error())
	}
	return val, nil
}

// valueToString renders a scalar cty value the way YAML would have written
// it: strings verbatim, booleans as true/false, numbers without exponent
// notation.
func valueToString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", fmt.Errorf("expression result is null")
	}
	if !val.IsKnown() {
		return "", fmt.Errorf("expression result is not known")
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Bool:
		if val.True() {
			return "true", nil
		}
		return "false", nil
	case cty.Number:
		return val.AsBigFloat().Text('f', -1), nil
	default:
		return "", fmt.Errorf("result type %s cannot be rendered as a string", val.Type().FriendlyName())
	}
}
