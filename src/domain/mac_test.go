package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMac(t *testing.T) {
	t.Parallel()

	// given
	tries := map[string]struct {
		regionID     int
		serverTypeID int
		ipAddressID  int
		mac          string
	}{
		"zero ids":      {0, 0, 0, "00:00:00:00:00:00"},
		"small ids":     {1, 2, 3, "02:00:01:00:00:03"},
		"mixed nibbles": {0xABCDE, 0xF, 0x123456, "AF:BC:DE:12:34:56"},
		"max ids":       {macMaxRegionID - 1, macMaxServerTypeID - 1, macMaxIPAddressID - 1, "FF:FF:FF:FF:FF:FF"},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// when
			mac, err := DeriveMac(try.regionID, try.serverTypeID, try.ipAddressID)

			// then
			assert.Nil(t, err)
			assert.Equal(t, try.mac, mac)
		})
	}
}

func TestDeriveMacRejectsOverflowingIds(t *testing.T) {
	t.Parallel()

	for k, try := range map[string][3]int{
		"region too large":      {macMaxRegionID, 0, 0},
		"server type too large": {0, macMaxServerTypeID, 0},
		"ip address too large":  {0, 0, macMaxIPAddressID},
		"negative region":       {-1, 0, 0},
	} {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			_, err := DeriveMac(try[0], try[1], try[2])
			assert.Error(t, err)
		})
	}
}
