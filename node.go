package playdb

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/xzrunner/playdb/internal/base"
	"github.com/xzrunner/playdb/internal/codec"
	"github.com/xzrunner/playdb/storage"
)

// Node page layout (little-endian):
//
//	leaf      uint8 (0 or 1)
//	count     uint32 number of entries
//	entries   count x { key, payload int32, length uint64 }
//	children  (count+1) x int32 for branch nodes, none for leaves
const (
	nodeHeaderSize = 1 + 4
	entryRefSize   = 4 + 8
	childRefSize   = 4
)

// entry is one key with a reference to its payload record. Payload bytes
// never live inside the node page.
type entry[K cmp.Ordered] struct {
	key     K
	payload storage.PageID
	length  int
}

// node is the decoded form of one B-tree page. Nodes are values: they are
// read, mutated and written back within a single operation and never kept
// between calls.
type node[K cmp.Ordered] struct {
	id       storage.PageID // storage.NewPage until first written
	leaf     bool
	entries  []entry[K]
	children []storage.PageID // len(entries)+1 for branch nodes
}

func newNode[K cmp.Ordered](leaf bool) *node[K] {
	return &node[K]{id: storage.NewPage, leaf: leaf}
}

// search scans for the first entry whose key is >= key. found reports an
// exact match at i; otherwise i is both the insert slot and the child to
// descend into.
func (n *node[K]) search(key K) (i int, found bool) {
	for i = 0; i < len(n.entries); i++ {
		switch c := cmp.Compare(n.entries[i].key, key); {
		case c == 0:
			return i, true
		case c > 0:
			return i, false
		}
	}
	return i, false
}

// insertEntryAt shifts entries at and after i one slot right and puts e at i.
func (n *node[K]) insertEntryAt(i int, e entry[K]) {
	n.entries = slices.Insert(n.entries, i, e)
}

// deleteEntryAt removes the entry at i, shifting later entries left.
func (n *node[K]) deleteEntryAt(i int) entry[K] {
	e := n.entries[i]
	n.entries = slices.Delete(n.entries, i, i+1)
	return e
}

// insertChildAt shifts children at and after i one slot right and puts id at i.
func (n *node[K]) insertChildAt(i int, id storage.PageID) {
	n.children = slices.Insert(n.children, i, id)
}

// size returns the packed size of the node
func (n *node[K]) size(keys KeyCodec[K]) int {
	size := nodeHeaderSize + len(n.entries)*entryRefSize
	for _, e := range n.entries {
		size += keys.Size(e.key)
	}
	if !n.leaf {
		size += len(n.children) * childRefSize
	}
	return size
}

// serialize encodes the node into a fresh buffer
func (n *node[K]) serialize(keys KeyCodec[K]) ([]byte, error) {
	if !n.leaf && len(n.children) != len(n.entries)+1 {
		return nil, fmt.Errorf("%w: branch node %d has %d entries and %d children",
			base.ErrIllegalState, n.id, len(n.entries), len(n.children))
	}

	b := make([]byte, 0, n.size(keys))
	b = codec.AppendBool(b, n.leaf)
	b = codec.AppendUint32(b, uint32(len(n.entries)))

	var err error
	for _, e := range n.entries {
		if b, err = keys.Append(b, e.key); err != nil {
			return nil, err
		}
		b = codec.AppendInt32(b, int32(e.payload))
		b = codec.AppendUint64(b, uint64(e.length))
	}

	if !n.leaf {
		for _, c := range n.children {
			b = codec.AppendInt32(b, int32(c))
		}
	}
	return b, nil
}

// deserialize decodes a node page stored under id
func deserialize[K cmp.Ordered](keys KeyCodec[K], id storage.PageID, buf []byte) (*node[K], error) {
	d := codec.NewDecoder(buf)
	n := &node[K]{id: id, leaf: d.Bool()}

	count := int(d.Uint32())
	if d.Err() != nil {
		return nil, fmt.Errorf("node %d: %w", id, d.Err())
	}
	if count > d.Remaining()/entryRefSize {
		return nil, fmt.Errorf("%w: node %d claims %d entries in %d bytes",
			base.ErrIllegalState, id, count, len(buf))
	}

	n.entries = make([]entry[K], count)
	off := d.Offset()
	for i := range n.entries {
		key, used, err := keys.Decode(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("node %d entry %d: %w", id, i, err)
		}
		off += used

		d = codec.NewDecoder(buf[off:])
		n.entries[i] = entry[K]{
			key:     key,
			payload: storage.PageID(d.Int32()),
			length:  int(d.Uint64()),
		}
		if d.Err() != nil {
			return nil, fmt.Errorf("node %d entry %d: %w", id, i, d.Err())
		}
		off += d.Offset()
	}

	d = codec.NewDecoder(buf[off:])
	if !n.leaf {
		n.children = make([]storage.PageID, count+1)
		for i := range n.children {
			n.children[i] = storage.PageID(d.Int32())
		}
		if d.Err() != nil {
			return nil, fmt.Errorf("node %d children: %w", id, d.Err())
		}
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: node %d has %d trailing bytes", base.ErrIllegalState, id, d.Remaining())
	}
	return n, nil
}
