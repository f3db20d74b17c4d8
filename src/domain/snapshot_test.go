package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSnapshotTree(t *testing.T) {
	t.Parallel()

	parent := func(id int) *int { return &id }

	t.Run("nests children under parents", func(t *testing.T) {
		t.Parallel()

		// given
		snapshots := []Snapshot{
			{ID: 1, Name: "root"},
			{ID: 2, Name: "child", ParentID: parent(1)},
			{ID: 3, Name: "grandchild", ParentID: parent(2)},
			{ID: 4, Name: "sibling", ParentID: parent(1)},
		}

		// when
		trees := BuildSnapshotTree(snapshots)

		// then
		if assert.Len(t, trees, 1) {
			root := trees[0]
			assert.Equal(t, 1, root.Snapshot.ID)
			if assert.Len(t, root.Children, 2) {
				assert.Equal(t, 2, root.Children[0].Snapshot.ID)
				assert.Equal(t, 4, root.Children[1].Snapshot.ID)
				if assert.Len(t, root.Children[0].Children, 1) {
					assert.Equal(t, 3, root.Children[0].Children[0].Snapshot.ID)
				}
			}
		}
	})

	t.Run("multiple roots", func(t *testing.T) {
		t.Parallel()

		trees := BuildSnapshotTree([]Snapshot{
			{ID: 1},
			{ID: 2},
			{ID: 3, ParentID: parent(2)},
		})

		if assert.Len(t, trees, 2) {
			assert.Empty(t, trees[0].Children)
			assert.Len(t, trees[1].Children, 1)
		}
	})

	t.Run("no snapshots", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, BuildSnapshotTree(nil))
	})

	t.Run("leaves marshal with empty children", func(t *testing.T) {
		t.Parallel()

		trees := BuildSnapshotTree([]Snapshot{{ID: 1}})

		if assert.Len(t, trees, 1) {
			assert.NotNil(t, trees[0].Children)
		}
	})
}
