package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAlgorithms(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		value   string
		allowed []string
		valid   bool
	}{
		"single":            {"sha1", IKEAuthentications, true},
		"several":           {"sha1,sha-256", IKEAuthentications, true},
		"spaces trimmed":    {"sha1, sha-256", IKEAuthentications, true},
		"one bad entry":     {"sha1,md5", IKEAuthentications, false},
		"empty":             {"", IKEAuthentications, false},
		"gcm only in ipsec": {"aes-128-gcm", IPSecEncryptions, true},
		"gcm not in ike":    {"aes-128-gcm", IKEEncryptions, false},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.valid, ValidAlgorithms(try.value, try.allowed))
		})
	}
}

func TestVPNSku(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SkuVPNSiteToSite, VPN{VPNType: VPNTypeSiteToSite}.Sku())
	assert.Equal(t, SkuVPNDynamic, VPN{VPNType: VPNTypeDynamic}.Sku())
}
