package cache

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plotwise/plotwise/pkg/models"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := NewDescriptor(models.OpCost).
		With("area", 2400.0).
		With("city", "Ooty").
		With("floors", 2)
	b := NewDescriptor(models.OpCost).
		With("floors", 2).
		With("city", "Ooty").
		With("area", 2400.0)

	assert.Equal(t, a.Key(), b.Key())
}

func TestKeyNormalizesStrings(t *testing.T) {
	a := NewDescriptor(models.OpDescription).With("city", "  Ooty ").With("features", []string{"Lake View", "gated"})
	b := NewDescriptor(models.OpDescription).With("city", "ooty").With("features", []string{"Gated", "lake  view"})

	assert.Equal(t, a.Key(), b.Key())
}

func TestKeyDistinguishesEveryField(t *testing.T) {
	base := func() *Descriptor {
		return NewDescriptor(models.OpVisualization).
			With("listing", "4").
			With("style", "Colonial").
			With("floors", 2).
			With("view", string(models.ViewStandard))
	}
	ref := base().Key()

	assert.NotEqual(t, ref, base().With("listing", "5").Key())
	assert.NotEqual(t, ref, base().With("style", "Minimalist").Key())
	assert.NotEqual(t, ref, base().With("floors", 3).Key())
	assert.NotEqual(t, ref, base().With("view", string(models.ViewPanorama)).Key())
}

func TestKeyHandlesNonFiniteFloats(t *testing.T) {
	draft := func(city string, area float64) *Descriptor {
		return NewDescriptor(models.OpDescription).With("city", city).With("area", area)
	}
	ooty := draft("Ooty", math.Inf(1)).Key()

	assert.Equal(t, ooty, draft("Ooty", math.Inf(1)).Key())
	assert.NotEqual(t, ooty, draft("Goa", math.Inf(1)).Key())
	assert.NotEqual(t, ooty, draft("Ooty", math.Inf(-1)).Key())
	assert.NotEqual(t, ooty, draft("Ooty", math.NaN()).Key())
	assert.NotEqual(t, ooty, draft("Ooty", 2400).Key())
}

func TestKeyDistinguishesOperations(t *testing.T) {
	a := NewDescriptor(models.OpRisk).With("listing", "1")
	b := NewDescriptor(models.OpDescription).With("listing", "1")

	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, strings.HasPrefix(a.Key(), "risk:"))
}

func TestRefreshNeverCollidesWithPlainKey(t *testing.T) {
	plain := NewDescriptor(models.OpCost).With("city", "Coorg")
	forced := NewDescriptor(models.OpCost).With("city", "Coorg").Refresh("nonce-1")
	forcedAgain := NewDescriptor(models.OpCost).With("city", "Coorg").Refresh("nonce-2")

	assert.False(t, plain.Forced())
	assert.True(t, forced.Forced())
	assert.NotEqual(t, plain.Key(), forced.Key())
	assert.NotEqual(t, forced.Key(), forcedAgain.Key())
}

func TestBlank(t *testing.T) {
	assert.True(t, Blank(""))
	assert.True(t, Blank(" \t\n"))
	assert.False(t, Blank(" villa "))
}
