package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStressTestRate(t *testing.T) {
	r := Default()
	tests := []struct {
		name     string
		contract float64
		expected float64
	}{
		{"floor binds", 0.03, 0.0525},
		{"buffer binds", 0.06, 0.08},
		{"zero rate", 0, 0.0525},
		{"at crossover", 0.0325, 0.0525},
		{"just above crossover", 0.04, 0.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, r.StressTestRate(tt.contract), 1e-12)
		})
	}
}

func TestStressTestRateIsMaxOfBufferAndFloor(t *testing.T) {
	r := Default()
	for i := 0; i <= 200; i++ {
		contract := float64(i) * 0.001
		expected := contract + 0.02
		if expected < 0.0525 {
			expected = 0.0525
		}
		assert.Equal(t, expected, r.StressTestRate(contract))
	}
}

func TestCMHCPremiumRate(t *testing.T) {
	r := Default()
	tests := []struct {
		name     string
		down     float64
		expected float64
		ok       bool
	}{
		{"below minimum", 4.99, 0, false},
		{"five percent", 5, 0.04, true},
		{"upper edge of first tier", 9.99, 0.04, true},
		{"ten percent", 10, 0.031, true},
		{"fifteen percent", 15, 0.028, true},
		{"nineteen point nine nine", 19.99, 0.028, true},
		{"conventional", 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, ok := r.CMHCPremiumRate(tt.down)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, rate)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"rotating above total", func(r *Rules) { r.HelocRotatingMaxLTV = 0.9 }},
		{"refinance above one", func(r *Rules) { r.RefinanceMaxLTV = 1.2; r.HelocRotatingMaxLTV = 0.65 }},
		{"negative buffer", func(r *Rules) { r.StressTestBuffer = -0.01 }},
		{"zero dscr", func(r *Rules) { r.MinCommercialDSCR = 0 }},
		{"overlapping tiers", func(r *Rules) { r.CMHCTiers[1].MinDownPaymentPercent = 8 }},
		{"empty tier", func(r *Rules) { r.CMHCTiers[0].MaxDownPaymentPercent = 5 }},
		{"bad term bounds", func(r *Rules) { r.MinTermYears = 11 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestVersionChangesWithContent(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Version(), b.Version())
	b.StressTestFloor = 0.055
	assert.NotEqual(t, a.Version(), b.Version())
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewDefaultStore()
	snapshot := store.Snapshot()

	next := Default()
	next.StressTestFloor = 0.06
	require.NoError(t, store.Replace(next))

	assert.Equal(t, 0.0525, snapshot.StressTestFloor)
	assert.Equal(t, 0.06, store.Snapshot().StressTestFloor)

	// mutating a snapshot never leaks into the store
	snapshot.CMHCTiers[0].PremiumRate = 1
	assert.Equal(t, 0.04, store.Snapshot().CMHCTiers[0].PremiumRate)
}

func TestStoreRejectsInvalid(t *testing.T) {
	store := NewDefaultStore()
	bad := Default()
	bad.MinCommercialDSCR = -1
	assert.Error(t, store.Replace(bad))
	assert.Equal(t, 1.25, store.Snapshot().MinCommercialDSCR)

	_, err := NewStore(nil, bad)
	assert.Error(t, err)
}

func TestStoreConcurrentReload(t *testing.T) {
	store := NewDefaultStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Snapshot().StressTestRate(0.05)
		}()
		go func(i int) {
			defer wg.Done()
			next := Default()
			next.StressTestFloor = 0.05 + float64(i)*0.001
			_ = store.Replace(next)
		}(i)
	}
	wg.Wait()
	assert.NoError(t, store.Snapshot().Validate())
}
