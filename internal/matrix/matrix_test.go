package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_CrossProduct(t *testing.T) {
	spec := &Spec{
		Axes: map[string][]string{
			"python_version":    {"3.10", "3.11", "3.12"},
			"cuda_arch_version": {"12.8"},
		},
	}

	combos := spec.Expand()
	require.Len(t, combos, 3)

	// Axes iterate in sorted name order, values in declaration order.
	assert.Equal(t, Combination{"cuda_arch_version": "12.8", "python_version": "3.10"}, combos[0])
	assert.Equal(t, Combination{"cuda_arch_version": "12.8", "python_version": "3.11"}, combos[1])
	assert.Equal(t, Combination{"cuda_arch_version": "12.8", "python_version": "3.12"}, combos[2])
}

func TestExpand_EmptyMatrix(t *testing.T) {
	spec := &Spec{}

	combos := spec.Expand()
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestExpand_Exclude(t *testing.T) {
	spec := &Spec{
		Axes: map[string][]string{
			"python_version": {"3.10", "3.11"},
			"cuda":           {"11.8", "12.8"},
		},
		Exclude: []Combination{
			{"python_version": "3.10", "cuda": "11.8"},
		},
	}

	combos := spec.Expand()
	require.Len(t, combos, 3)
	for _, c := range combos {
		assert.False(t, c["python_version"] == "3.10" && c["cuda"] == "11.8", "excluded combination survived: %v", c)
	}
}

func TestExpand_IncludeAugmentsMatching(t *testing.T) {
	spec := &Spec{
		Axes: map[string][]string{
			"python_version": {"3.10", "3.11"},
		},
		Include: []Combination{
			{"python_version": "3.11", "experimental": "true"},
		},
	}

	combos := spec.Expand()
	require.Len(t, combos, 2)
	assert.Equal(t, "", combos[0]["experimental"])
	assert.Equal(t, "true", combos[1]["experimental"])
}

func TestExpand_IncludeAppendsUnmatched(t *testing.T) {
	spec := &Spec{
		Axes: map[string][]string{
			"python_version": {"3.10"},
		},
		Include: []Combination{
			{"python_version": "3.13"},
		},
	}

	combos := spec.Expand()
	require.Len(t, combos, 2)
	assert.Equal(t, "3.13", combos[1]["python_version"])
}

func TestExpand_IncludeWithoutAxesDecoratesAll(t *testing.T) {
	spec := &Spec{
		Axes: map[string][]string{
			"python_version": {"3.10", "3.11"},
		},
		Include: []Combination{
			{"runner": "gpu"},
		},
	}

	combos := spec.Expand()
	require.Len(t, combos, 2)
	for _, c := range combos {
		assert.Equal(t, "gpu", c["runner"])
	}
}

func TestCombination_ID(t *testing.T) {
	c := Combination{"python_version": "3.10", "cuda_arch_version": "12.8"}
	assert.Equal(t, "cuda_arch_version=12.8,python_version=3.10", c.ID())

	assert.Equal(t, "", Combination{}.ID())
}
