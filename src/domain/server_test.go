package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testServer() Server {
	return Server{
		ID:       1,
		Cores:    16,
		RAM:      128,
		GB:       1000,
		Enabled:  true,
		RegionID: 3,
	}
}

func TestCapacityLimits(t *testing.T) {
	t.Parallel()

	server := testServer()

	// given 16 cores, 128 GB RAM, 1000 GB disk
	assert.Equal(t, 128, server.VCPUs())
	assert.Equal(t, 99, server.VCPUsForCreate())
	assert.Equal(t, 128, server.VCPUsForUpdate())
	assert.Equal(t, 93, server.RAMForCreate())
	assert.Equal(t, 114, server.RAMForUpdate())
	assert.Equal(t, 693, server.GBForCreate())
	assert.Equal(t, 810, server.GBForUpdate())
}

func TestCapacityVectorSubtractsGuests(t *testing.T) {
	t.Parallel()

	server := testServer()
	server.RAMInUse = 43
	server.GBInUse = 600
	server.VCPUsInUse = 90

	assert.Equal(t, []int{50, 93, 9}, server.CapacityVector())
}

func TestSuitability(t *testing.T) {
	t.Parallel()

	t.Run("unfit on any exceeded component", func(t *testing.T) {
		t.Parallel()

		tries := map[string][]int{
			"ram":   {94, 100, 10},
			"disk":  {10, 694, 10},
			"vcpus": {10, 100, 100},
		}

		for k, requirement := range tries {
			k := k
			requirement := requirement
			t.Run(k, func(t *testing.T) {
				t.Parallel()

				assert.Equal(t, float64(SuitabilityUnfit), testServer().Suitability(requirement))
			})
		}
	})

	t.Run("fitting requirements stay within bounds", func(t *testing.T) {
		t.Parallel()

		tries := map[string][]int{
			"small":     {4, 50, 2},
			"balanced":  {32, 240, 33},
			"lopsided":  {93, 1, 1},
			"full ram":  {93, 100, 10},
			"full disk": {10, 693, 10},
		}

		for k, requirement := range tries {
			k := k
			requirement := requirement
			t.Run(k, func(t *testing.T) {
				t.Parallel()

				score := testServer().Suitability(requirement)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 3.0)
			})
		}
	})

	t.Run("empty requirement scores the full bound", func(t *testing.T) {
		t.Parallel()

		assert.InDelta(t, 3.0, testServer().Suitability([]int{0, 0, 0}), 1e-9)
	})
}

func TestHeadroomForUpdate(t *testing.T) {
	t.Parallel()

	server := testServer()
	server.RAMInUse = 100
	server.GBInUse = 800
	server.VCPUsInUse = 120

	// given update limits of 114 GB RAM, 810 GB disk and 128 vcpus
	assert.True(t, server.HeadroomForUpdate(14, 10, 8))
	assert.False(t, server.HeadroomForUpdate(15, 10, 8), "ram over the update limit")
	assert.False(t, server.HeadroomForUpdate(14, 11, 8), "disk over the update limit")
	assert.False(t, server.HeadroomForUpdate(14, 10, 9), "vcpus over the update limit")
}
