package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNumbers(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		page       Page
		number     int
		pages      int
		prevOffset *int
		nextOffset *int
	}{
		"first page": {
			Page{Limit: 10, Offset: 0, Total: 35},
			1, 4, nil, ptr(10),
		},
		"middle page": {
			Page{Limit: 10, Offset: 20, Total: 35},
			3, 4, ptr(10), ptr(30),
		},
		"last page": {
			Page{Limit: 10, Offset: 30, Total: 35},
			4, 4, ptr(20), nil,
		},
		"offset between pages": {
			Page{Limit: 10, Offset: 5, Total: 35},
			1, 4, ptr(0), ptr(15),
		},
		"exact fit": {
			Page{Limit: 10, Offset: 0, Total: 30},
			1, 3, nil, ptr(10),
		},
		"zero limit": {
			Page{Limit: 0, Offset: 20, Total: 5},
			1, 0, nil, nil,
		},
		"negative limit": {
			Page{Limit: -10, Offset: 0, Total: 5},
			1, 0, nil, nil,
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.number, try.page.Number())
			assert.Equal(t, try.pages, try.page.Pages())
			assert.Equal(t, try.prevOffset, try.page.PrevOffset())
			assert.Equal(t, try.nextOffset, try.page.NextOffset())
		})
	}
}

func TestPageMarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("envelope fields", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(&Page{Limit: 10, Offset: 20, Total: 35})
		assert.Nil(t, err)
		assert.JSONEq(t, `{
			"offset": 20,
			"limit": 10,
			"total": 35,
			"number": 3,
			"pages": 4,
			"prev_offset": 10,
			"next_offset": 30
		}`, string(data))
	})

	t.Run("nil page is null", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal((*Page)(nil))
		assert.Nil(t, err)
		assert.Equal(t, "null", string(data))
	})
}

func TestPageOrderBy(t *testing.T) {
	t.Parallel()

	allowed := map[string]string{"id": "vm.id", "name": "vm.name"}

	tries := map[string]struct {
		order   string
		orderBy string
	}{
		"ascending":       {"name", "vm.name"},
		"descending":      {"-name", "vm.name DESC"},
		"absent":          {"", "vm.id DESC"},
		"unknown field":   {"userdata", "vm.id DESC"},
		"lone minus sign": {"-", "vm.id DESC"},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			page := Page{Order: try.order}
			assert.Equal(t, try.orderBy, page.OrderBy(allowed, "vm.id DESC"))
		})
	}
}

func ptr(v int) *int {
	return &v
}
