package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckIPAddress(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		input    string
		valid    bool
		version  int
		private  bool
		reserved bool
	}{
		"public v4":    {"8.8.8.8", true, 4, false, false},
		"private v4":   {"10.1.2.3", true, 4, true, false},
		"link local":   {"169.254.0.1", true, 4, true, false},
		"loopback":     {"127.0.0.1", true, 4, false, true},
		"multicast":    {"224.0.0.1", true, 4, false, true},
		"unspecified":  {"0.0.0.0", true, 4, false, true},
		"public v6":    {"2001:db8::1", true, 6, false, false},
		"private v6":   {"fd00::1", true, 6, true, false},
		"v6 loopback":  {"::1", true, 6, false, true},
		"garbage":      {"not-an-ip", false, 0, false, false},
		"cidr not ip":  {"10.0.0.0/8", false, 0, false, false},
		"empty string": {"", false, 0, false, false},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			check := CheckIPAddress(try.input)

			assert.Equal(t, try.input, check.Input)
			assert.Equal(t, try.valid, check.Valid)
			assert.Equal(t, try.version, check.Version)
			assert.Equal(t, try.private, check.Private)
			assert.Equal(t, try.reserved, check.Reserved)
		})
	}
}

func TestCheckIPRange(t *testing.T) {
	t.Parallel()

	t.Run("v4 network and broadcast", func(t *testing.T) {
		t.Parallel()

		check := CheckIPRange("192.168.1.64/26")

		assert.True(t, check.Valid)
		assert.Equal(t, 4, check.Version)
		assert.True(t, check.Private)
		if assert.NotNil(t, check.Network) {
			assert.Equal(t, "192.168.1.64", *check.Network)
		}
		if assert.NotNil(t, check.Broadcast) {
			assert.Equal(t, "192.168.1.127", *check.Broadcast)
		}
	})

	t.Run("unmasked input is masked", func(t *testing.T) {
		t.Parallel()

		check := CheckIPRange("10.0.0.42/24")

		assert.True(t, check.Valid)
		if assert.NotNil(t, check.Network) {
			assert.Equal(t, "10.0.0.0", *check.Network)
		}
		if assert.NotNil(t, check.Broadcast) {
			assert.Equal(t, "10.0.0.255", *check.Broadcast)
		}
	})

	t.Run("host route has no broadcast", func(t *testing.T) {
		t.Parallel()

		check := CheckIPRange("203.0.113.7/32")

		assert.True(t, check.Valid)
		assert.Nil(t, check.Broadcast)
	})

	t.Run("v6 has no broadcast", func(t *testing.T) {
		t.Parallel()

		check := CheckIPRange("2001:db8::/48")

		assert.True(t, check.Valid)
		assert.Equal(t, 6, check.Version)
		if assert.NotNil(t, check.Network) {
			assert.Equal(t, "2001:db8::", *check.Network)
		}
		assert.Nil(t, check.Broadcast)
	})

	t.Run("plain address is not a range", func(t *testing.T) {
		t.Parallel()

		check := CheckIPRange("192.168.1.1")

		assert.False(t, check.Valid)
		assert.Nil(t, check.Network)
	})
}
