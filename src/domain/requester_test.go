package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequesterCanSeeAddress(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		requester Requester
		addressID int
		visible   bool
	}{
		"own address": {
			Requester{ID: 5, AddressID: 10}, 10, true,
		},
		"foreign address": {
			Requester{ID: 5, AddressID: 10}, 11, false,
		},
		"superuser sees everything": {
			Requester{ID: SuperuserID, AddressID: 10}, 999, true,
		},
		"global active member address": {
			Requester{ID: 5, AddressID: 10, GlobalActive: true, Addresses: []int{10, 11, 12}}, 12, true,
		},
		"global inactive member address": {
			Requester{ID: 5, AddressID: 10, Addresses: []int{10, 11, 12}}, 12, false,
		},
		"global active outside member": {
			Requester{ID: 5, AddressID: 10, GlobalActive: true, Addresses: []int{10, 11}}, 12, false,
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.visible, try.requester.CanSeeAddress(try.addressID))
		})
	}
}

func TestRequesterVisibleAddresses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{10},
		Requester{AddressID: 10, Addresses: []int{10, 11}}.VisibleAddresses(),
		"global inactive scopes to the own address")
	assert.Equal(t, []int{10, 11},
		Requester{AddressID: 10, GlobalActive: true, Addresses: []int{10, 11}}.VisibleAddresses())
	assert.Equal(t, []int{10},
		Requester{AddressID: 10, GlobalActive: true}.VisibleAddresses(),
		"empty claim falls back to the own address")
}
