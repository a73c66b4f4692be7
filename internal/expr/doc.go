// Package expr evaluates the `${{ ... }}` interpolation syntax used inside
// workflow values. Each expression is parsed with HCL's native syntax and
// evaluated against a cty scope exposing the matrix combination, the merged
// environment, and the current job, so `${{ matrix.python_version }}` and
// friends resolve the way the consuming CI system resolves them.
package expr
