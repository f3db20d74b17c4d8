package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDomainName(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidDomainName("example.com"))
	assert.True(t, ValidDomainName("a.very.deep.sub.example.com"))
	assert.False(t, ValidDomainName(""))
	assert.False(t, ValidDomainName(strings.Repeat("a", DomainNameMaxLength+1)))
	assert.False(t, ValidDomainName(strings.Repeat("a", 64)+".com"), "label over 63 octets")
}

func TestReverseDomainName(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		ip   string
		zone string
	}{
		"v4": {"203.0.113.7", "0.113.203.in-addr.arpa"},
		"v6": {
			"2001:db8::1",
			"0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.8.b.d.0.1.0.0.2.ip6.arpa",
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			zone, err := ReverseDomainName(try.ip)

			assert.Nil(t, err)
			assert.Equal(t, try.zone, zone)
		})
	}

	t.Run("invalid ip", func(t *testing.T) {
		t.Parallel()

		_, err := ReverseDomainName("not-an-ip")
		assert.Error(t, err)
	})
}

func TestRecordNeedsPriority(t *testing.T) {
	t.Parallel()

	assert.True(t, Record{Type: "MX"}.NeedsPriority())
	assert.True(t, Record{Type: "SRV"}.NeedsPriority())
	assert.False(t, Record{Type: "A"}.NeedsPriority())
}

func TestRecordIPAddressContent(t *testing.T) {
	t.Parallel()

	if content := (Record{Type: "A", Content: "203.0.113.7"}).IPAddressContent(); assert.NotNil(t, content) {
		assert.Equal(t, "203.0.113.7", *content)
	}
	assert.Nil(t, Record{Type: "TXT", Content: "v=spf1"}.IPAddressContent())
}
