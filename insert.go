package playdb

import (
	"cmp"
	"slices"

	"github.com/xzrunner/playdb/storage"
)

// InsertData stores data under key. The payload is written as its own
// record; inserting an existing key overwrites that key's payload in place.
//
// Full nodes are split on the way down, so a split never has to travel back
// up past the node that triggered it. If the manager fails part way through
// a split the tree may be left inconsistent; nothing is rolled back.
func (bt *BTree[K]) InsertData(key K, data []byte) error {
	root, err := bt.readNode(bt.rootID)
	if err != nil {
		return err
	}

	if len(root.entries) == bt.maxKeys() {
		// Grow: the old root becomes the only child of a new root
		newRoot := newNode[K](false)
		newRoot.children = []storage.PageID{root.id}
		if _, err := bt.splitChild(newRoot, 0, root); err != nil {
			return err
		}

		bt.rootID = newRoot.id
		bt.stats.TreeHeight++
		if err := bt.storeHeader(); err != nil {
			return err
		}
		bt.log.Info("btree root split", "root", bt.rootID, "height", bt.stats.TreeHeight)
		root = newRoot
	}

	return bt.insertNonFull(root, key, data)
}

// insertNonFull inserts into the subtree rooted at n, which is not full
func (bt *BTree[K]) insertNonFull(n *node[K], key K, data []byte) error {
	i, found := n.search(key)
	if found {
		return bt.overwrite(n, i, data)
	}

	if n.leaf {
		id, err := bt.mgr.Store(storage.NewPage, data)
		if err != nil {
			return err
		}
		bt.stats.Data++
		n.insertEntryAt(i, entry[K]{key: key, payload: id, length: len(data)})
		return bt.writeNode(n)
	}

	child, err := bt.readNode(n.children[i])
	if err != nil {
		return err
	}

	if len(child.entries) == bt.maxKeys() {
		sibling, err := bt.splitChild(n, i, child)
		if err != nil {
			return err
		}
		// The median now sits at n.entries[i]; pick the half that covers key
		switch c := cmp.Compare(key, n.entries[i].key); {
		case c == 0:
			return bt.overwrite(n, i, data)
		case c > 0:
			child = sibling
		}
	}

	return bt.insertNonFull(child, key, data)
}

// overwrite replaces the payload of n.entries[i] and persists n
func (bt *BTree[K]) overwrite(n *node[K], i int, data []byte) error {
	e := &n.entries[i]
	id, err := bt.mgr.Store(e.payload, data)
	if err != nil {
		return err
	}
	e.payload = id
	e.length = len(data)
	bt.stats.Adjustments++
	return bt.writeNode(n)
}

// splitChild splits the full child at parent.children[idx]. The child keeps
// its lower degree-1 entries, a new sibling takes the upper degree-1 entries
// (and upper degree children), and the median moves up into parent at idx.
// Sibling, child and parent are persisted in that order.
func (bt *BTree[K]) splitChild(parent *node[K], idx int, child *node[K]) (*node[K], error) {
	t := bt.degree

	sibling := newNode[K](child.leaf)
	sibling.entries = slices.Clone(child.entries[t:])
	if !child.leaf {
		sibling.children = slices.Clone(child.children[t:])
		child.children = slices.Clip(child.children[:t])
	}
	median := child.entries[t-1]
	child.entries = slices.Clip(child.entries[:t-1])

	if err := bt.writeNode(sibling); err != nil {
		return nil, err
	}

	parent.insertEntryAt(idx, median)
	parent.insertChildAt(idx+1, sibling.id)

	if err := bt.writeNode(child); err != nil {
		return nil, err
	}
	if err := bt.writeNode(parent); err != nil {
		return nil, err
	}

	bt.stats.Splits++
	return sibling, nil
}
