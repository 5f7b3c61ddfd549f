package playdb

import (
	"cmp"

	"github.com/xzrunner/playdb/storage"
)

// Record is a payload returned to the caller. Data is a copy owned by the
// caller, not a view into the store.
type Record[K cmp.Ordered] struct {
	ID   storage.PageID // Page id of the payload record
	Key  K
	Data []byte
}

// NodeInfo describes a node visited by LayerTraverse.
type NodeInfo struct {
	ID       storage.PageID
	Leaf     bool
	Entries  int // Number of keys held by the node
	Children int // Number of child nodes, 0 for leaves
}

// Visitor receives nodes and leaf payloads from LayerTraverse. Returning an
// error from either method stops the traversal and returns that error.
type Visitor[K cmp.Ordered] interface {
	VisitNode(NodeInfo) error
	VisitData(Record[K]) error
}

// VisitFuncs adapts a pair of functions to the Visitor interface. A nil
// function skips that kind of visit.
type VisitFuncs[K cmp.Ordered] struct {
	Node func(NodeInfo) error
	Data func(Record[K]) error
}

func (v VisitFuncs[K]) VisitNode(n NodeInfo) error {
	if v.Node == nil {
		return nil
	}
	return v.Node(n)
}

func (v VisitFuncs[K]) VisitData(r Record[K]) error {
	if v.Data == nil {
		return nil
	}
	return v.Data(r)
}

// LayerTraverse walks the tree breadth first, level by level and left to
// right, starting at the root. Every node is passed to VisitNode; after a
// leaf node, the payload of each of its entries is loaded and passed to
// VisitData in key order. Payloads of keys held in branch nodes are not
// visited.
//
// The walk is read-only and re-reads every node from the manager.
func (bt *BTree[K]) LayerTraverse(v Visitor[K]) error {
	queue := []storage.PageID{bt.rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n, err := bt.readNode(id)
		if err != nil {
			return err
		}

		info := NodeInfo{
			ID:       n.id,
			Leaf:     n.leaf,
			Entries:  len(n.entries),
			Children: len(n.children),
		}
		if err := v.VisitNode(info); err != nil {
			return err
		}

		if !n.leaf {
			queue = append(queue, n.children...)
			continue
		}

		for _, e := range n.entries {
			rec, err := bt.loadPayload(e)
			if err != nil {
				return err
			}
			if err := v.VisitData(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
