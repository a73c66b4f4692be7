// Package matrix implements job matrix expansion: the cross-product of named
// axes, refined by include and exclude entries, producing one combination per
// job instance.
package matrix

import (
	"fmt"
	"sort"
	"strings"
)

// Spec is a declared job matrix. Axes maps axis name to its candidate values.
type Spec struct {
	Axes    map[string][]string
	Include []Combination
	Exclude []Combination
}

// Combination assigns one value to each axis of an expanded job instance.
type Combination map[string]string

// ID renders the combination as a stable identifier fragment, axes sorted
// lexicographically.
func (c Combination) ID() string {
	if len(c) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, c[k]))
	}
	return strings.Join(parts, ",")
}

// clone returns a shallow copy of the combination.
func (c Combination) clone() Combination {
	out := make(Combination, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// subsetOf reports whether every assignment in c is also present in other.
func (c Combination) subsetOf(other Combination) bool {
	for k, v := range c {
		if other[k] != v {
			return false
		}
	}
	return true
}

// sharesAxisWith reports whether c and other agree on at least one axis that
// both carry, and disagree on none they share.
func (c Combination) sharesAxisWith(other Combination) bool {
	shared := false
	for k, v := range c {
		ov, ok := other[k]
		if !ok {
			continue
		}
		if ov != v {
			return false
		}
		shared = true
	}
	return shared
}

// Expand produces the job instances of the matrix, in deterministic order:
// axes are iterated in sorted name order, values in declaration order.
// An empty matrix yields a single empty combination. Exclude entries remove
// every combination they are a subset of; include entries then augment the
// matching combinations, or append a brand new one when nothing matches.
func (s *Spec) Expand() []Combination {
	axisNames := make([]string, 0, len(s.Axes))
	for name := range s.Axes {
		axisNames = append(axisNames, name)
	}
	sort.Strings(axisNames)

	combos := []Combination{{}}
	for _, axis := range axisNames {
		values := s.Axes[axis]
		next := make([]Combination, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				c := combo.clone()
				c[axis] = v
				next = append(next, c)
			}
		}
		combos = next
	}

	if len(s.Exclude) > 0 {
		kept := combos[:0]
		for _, combo := range combos {
			excluded := false
			for _, ex := range s.Exclude {
				if len(ex) > 0 && ex.subsetOf(combo) {
					excluded = true
					break
				}
			}
			if !excluded {
				kept = append(kept, combo)
			}
		}
		combos = kept
	}

	for _, inc := range s.Include {
		touchesAxis := false
		for k := range inc {
			if _, ok := s.Axes[k]; ok {
				touchesAxis = true
				break
			}
		}
		if !touchesAxis {
			// Pure extras (no axis keys) decorate every combination.
			for _, combo := range combos {
				for k, v := range inc {
					combo[k] = v
				}
			}
			continue
		}
		matched := false
		for _, combo := range combos {
			if inc.sharesAxisWith(combo) {
				for k, v := range inc {
					if _, isAxis := combo[k]; !isAxis {
						combo[k] = v
					}
				}
				matched = true
			}
		}
		if !matched {
			combos = append(combos, inc.clone())
		}
	}

	return combos
}
