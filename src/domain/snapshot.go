package domain

import "time"

const SnapshotNameMaxLength = 128

// Snapshot rows of one VM form a tree via parent_id; exactly one
// snapshot per VM is active at a time.
type Snapshot struct {
	ID            int       `json:"id"`
	Active        bool      `json:"active"`
	Name          string    `json:"name"`
	ParentID      *int      `json:"parent_id" db:"parent_id"`
	RemoveSubtree bool      `json:"remove_subtree" db:"remove_subtree"`
	State         State     `json:"state"`
	VMID          int       `json:"vm_id" db:"vm_id"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

// SnapshotTree is the nested form served by snapshot_tree.read.
type SnapshotTree struct {
	Snapshot Snapshot       `json:"snapshot"`
	Children []SnapshotTree `json:"children"`
}

// BuildSnapshotTree nests a VM's snapshots under their parents,
// returning the roots.
func BuildSnapshotTree(snapshots []Snapshot) []SnapshotTree {
	children := map[int][]Snapshot{}
	roots := []Snapshot{}
	for _, snapshot := range snapshots {
		if snapshot.ParentID == nil {
			roots = append(roots, snapshot)
		} else {
			children[*snapshot.ParentID] = append(children[*snapshot.ParentID], snapshot)
		}
	}

	var build func(Snapshot) SnapshotTree
	build = func(snapshot Snapshot) SnapshotTree {
		tree := SnapshotTree{Snapshot: snapshot, Children: []SnapshotTree{}}
		for _, child := range children[snapshot.ID] {
			tree.Children = append(tree.Children, build(child))
		}
		return tree
	}

	trees := make([]SnapshotTree, 0, len(roots))
	for _, root := range roots {
		trees = append(trees, build(root))
	}
	return trees
}

// SnapshotHistory is an audit row written for snapshot changes.
type SnapshotHistory struct {
	ID         int       `json:"id"`
	SnapshotID int       `json:"snapshot_id" db:"snapshot_id"`
	State      State     `json:"state"`
	UserID     int       `json:"user_id" db:"user_id"`
	Created    time.Time `json:"created"`
}
