package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApiErrorStatusCode(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		code   string
		status int
	}{
		"authentication": {CodeAuthentication, 401},
		"lookup":         {"iaas_vm_read_001", 404},
		"validation":     {"iaas_vm_create_101", 400},
		"permission":     {"iaas_vm_update_201", 403},
		"non-numeric":    {"iaas_weird", 500},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.status, ApiError{Code: try.code}.StatusCode())
		})
	}
}

func TestNewApiError(t *testing.T) {
	t.Parallel()

	t.Run("known code carries catalog detail", func(t *testing.T) {
		t.Parallel()

		err := NewApiError("iaas_vm_read_001")
		assert.Equal(t, "iaas_vm_read_001", err.Code)
		assert.Equal(t, "The requested VM does not exist.", err.Detail)
	})

	t.Run("unknown code still surfaces", func(t *testing.T) {
		t.Parallel()

		err := NewApiError("iaas_nonexistent_042")
		assert.Equal(t, "iaas_nonexistent_042", err.Code)
		assert.NotEmpty(t, err.Detail)
	})
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	err := FieldErrors{
		"name": NewApiError("iaas_project_create_101"),
	}
	assert.Equal(t, "validation failed for: name", err.Error())
}
