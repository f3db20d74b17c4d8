package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/domain"
)

func fieldErrorCode(t *testing.T, err error, field string) string {
	t.Helper()
	var fieldErrors domain.FieldErrors
	if !assert.ErrorAs(t, err, &fieldErrors) {
		return ""
	}
	return fieldErrors[field].Code
}

func TestValidateStorages(t *testing.T) {
	t.Parallel()

	linux := &domain.Image{CloudInit: true}
	answerFile := "win2022.xml"
	windows := &domain.Image{AnswerFileName: &answerFile}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, validateStorages([]StorageCreate{
			{Name: "system", GB: 50, Primary: true},
			{Name: "data", GB: 100},
		}, linux))
	})

	tries := map[string]struct {
		storages []StorageCreate
		image    *domain.Image
		code     string
	}{
		"no storages": {
			nil, linux, "iaas_vm_create_105",
		},
		"unnamed storage": {
			[]StorageCreate{{Name: "", GB: 50, Primary: true}}, linux, "iaas_vm_create_105",
		},
		"no primary": {
			[]StorageCreate{{Name: "data", GB: 50}}, linux, "iaas_vm_create_106",
		},
		"two primaries": {
			[]StorageCreate{
				{Name: "a", GB: 50, Primary: true},
				{Name: "b", GB: 50, Primary: true},
			}, linux, "iaas_vm_create_106",
		},
		"below minimum": {
			[]StorageCreate{{Name: "system", GB: 5, Primary: true}}, linux, "iaas_vm_create_107",
		},
		"windows primary too small": {
			[]StorageCreate{{Name: "system", GB: 20, Primary: true}}, windows, "iaas_vm_create_108",
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			err := validateStorages(try.storages, try.image)
			assert.Equal(t, try.code, fieldErrorCode(t, err, "storages"))
		})
	}
}

func TestGrowStorages(t *testing.T) {
	t.Parallel()

	existing := func() []domain.Storage {
		return []domain.Storage{
			{Name: "system", GB: 50},
			{Name: "data", GB: 100},
		}
	}

	t.Run("grow and add", func(t *testing.T) {
		t.Parallel()

		// given
		storages := existing()

		// when
		grown, err := growStorages(storages, []StorageCreate{
			{Name: "system", GB: 80},
			{Name: "scratch", GB: 20},
		})

		// then
		assert.Nil(t, err)
		assert.Equal(t, 50, grown)
		assert.Equal(t, 80, storages[0].GB)
		assert.Equal(t, 100, storages[1].GB, "untouched storages keep their size")
	})

	t.Run("same size is zero growth", func(t *testing.T) {
		t.Parallel()

		grown, err := growStorages(existing(), []StorageCreate{{Name: "system", GB: 50}})

		assert.Nil(t, err)
		assert.Equal(t, 0, grown)
	})

	t.Run("shrinking is refused", func(t *testing.T) {
		t.Parallel()

		_, err := growStorages(existing(), []StorageCreate{{Name: "data", GB: 50}})

		assert.Equal(t, "iaas_vm_update_106", fieldErrorCode(t, err, "storages"))
	})

	t.Run("new storage below minimum", func(t *testing.T) {
		t.Parallel()

		_, err := growStorages(existing(), []StorageCreate{{Name: "scratch", GB: 5}})

		assert.Equal(t, "iaas_vm_create_107", fieldErrorCode(t, err, "storages"))
	})
}

func TestValidUserdata(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.ValidUserdata("#cloud-config\npackages:\n  - htop"))
	assert.True(t, domain.ValidUserdata("#!/bin/sh\necho hello"))
	assert.True(t, domain.ValidUserdata("Content-Type: multipart/mixed\nMIME-Version: 1.0\n"))
	assert.False(t, domain.ValidUserdata("just some text"))
	assert.False(t, domain.ValidUserdata(strings.TrimPrefix("#cloud-config", "#")))
}
