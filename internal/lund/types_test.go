package lund

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFourVectorSet(t *testing.T) {
	t.Run("four-field rows carry no charge", func(t *testing.T) {
		set, err := NewFourVectorSet([][]float64{{1, 0, 0, 1}, {0, 1, 0, 1}})
		require.NoError(t, err)
		assert.Equal(t, 2, set.Len())
		assert.False(t, set.HasCharge)
	})

	t.Run("six-field rows carry charge", func(t *testing.T) {
		set, err := NewFourVectorSet([][]float64{{1, 0, 0, 1, 1.0, -1}, {0, 1, 0, 1, 0.5, 0}})
		require.NoError(t, err)
		assert.True(t, set.HasCharge)
		assert.Equal(t, -1.0, set.Particles[0].Charge)
		assert.Equal(t, 0.0, set.Particles[1].Charge)
	})

	t.Run("short row", func(t *testing.T) {
		_, err := NewFourVectorSet([][]float64{{1, 0, 0}})
		assert.True(t, errors.Is(err, ErrRecordWidth))
	})

	t.Run("non-finite energy", func(t *testing.T) {
		_, err := NewFourVectorSet([][]float64{{1, 0, 0, math.Inf(1)}})
		assert.True(t, errors.Is(err, ErrNonFiniteEnergy))
	})

	t.Run("mixed widths", func(t *testing.T) {
		_, err := NewFourVectorSet([][]float64{{1, 0, 0, 1}, {1, 0, 0, 1, 1, 1}})
		assert.Error(t, err)
	})
}

func TestSplittingValid(t *testing.T) {
	assert.True(t, Splitting{DeltaR: 0.1, Kt: 2}.Valid())
	assert.False(t, Splitting{DeltaR: 0, Kt: 2}.Valid())
	assert.False(t, Splitting{DeltaR: 0.1, Kt: -1}.Valid())
}

func TestSplittingTree_SplittingsOf(t *testing.T) {
	tree := SplittingTree{
		Subjets: []Subjet{{Pt: 100}, {Pt: 50}},
		Splittings: []Splitting{
			{SubjetIndex: 0, DeltaR: 0.4, Kt: 10},
			{SubjetIndex: 0, DeltaR: 0.2, Kt: 5},
			{SubjetIndex: 1, DeltaR: 0.3, Kt: 2},
		},
	}
	assert.Len(t, tree.SplittingsOf(0), 2)
	assert.Len(t, tree.SplittingsOf(1), 1)
	assert.Empty(t, tree.SplittingsOf(2))
}

func TestPlaceholderTree(t *testing.T) {
	tree := PlaceholderTree()
	require.Len(t, tree.Subjets, 1)
	assert.Equal(t, Subjet{}, tree.Subjets[0])
	assert.Empty(t, tree.Splittings)
}
