// Package playdb is an embeddable ordered index: a B-tree mapping ordered
// keys to variable-length binary payloads on top of a page-addressed blob
// store.
//
// Every node and payload lives in its own record of a storage.Manager. Nodes
// are not cached; each operation reads the nodes it needs from the manager
// and writes back the ones it changes.
//
// A BTree is not safe for concurrent use. Callers must serialize access to a
// tree and to its manager, for example with a mutex they own.
package playdb

import (
	"cmp"
	"fmt"

	"github.com/xzrunner/playdb/internal/base"
	"github.com/xzrunner/playdb/internal/codec"
	"github.com/xzrunner/playdb/storage"
)

// BTree is a B-tree of keys K with payloads stored beside the nodes. The
// tree borrows its storage.Manager, which must outlive it.
type BTree[K cmp.Ordered] struct {
	mgr  storage.Manager
	keys KeyCodec[K]
	log  Logger

	headerID storage.PageID
	rootID   storage.PageID
	degree   int

	stats Stats
}

// Open creates or reopens a tree in mgr.
//
// With WithDegree a new tree is created: its header is stored first, then an
// empty leaf root, and the header is updated to point at it. Without
// WithDegree the header at WithHeaderID (default 0) is loaded and the root
// and degree are recovered from it.
func Open[K cmp.Ordered](mgr storage.Manager, keys KeyCodec[K], options ...Option) (*BTree[K], error) {
	if mgr == nil || keys == nil {
		return nil, fmt.Errorf("%w: storage manager and key codec are required", base.ErrIllegalArgument)
	}

	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	bt := &BTree[K]{
		mgr:      mgr,
		keys:     keys,
		log:      opts.logger,
		headerID: storage.NewPage,
		rootID:   storage.NewPage,
	}

	if opts.degree != 0 {
		if err := bt.create(opts.degree); err != nil {
			return nil, err
		}
		bt.log.Info("created btree", "header", bt.headerID, "root", bt.rootID, "degree", bt.degree)
		return bt, nil
	}

	bt.headerID = opts.headerID
	if err := bt.loadHeader(); err != nil {
		return nil, err
	}
	height, err := bt.measureHeight()
	if err != nil {
		return nil, err
	}
	bt.stats.TreeHeight = height
	bt.log.Info("opened btree", "header", bt.headerID, "root", bt.rootID,
		"degree", bt.degree, "height", height)
	return bt, nil
}

func (bt *BTree[K]) create(degree int) error {
	if degree < 2 {
		return fmt.Errorf("%w: degree must be at least 2, got %d", base.ErrIllegalArgument, degree)
	}
	bt.degree = degree

	// Header first, so that in an empty store it lands on page 0
	if err := bt.storeHeader(); err != nil {
		return err
	}

	root := newNode[K](true)
	if err := bt.writeNode(root); err != nil {
		return err
	}
	bt.rootID = root.id
	bt.stats.TreeHeight = 1

	return bt.storeHeader()
}

// Header record: root int32, degree uint64
const headerSize = 4 + 8

func (bt *BTree[K]) storeHeader() error {
	b := make([]byte, 0, headerSize)
	b = codec.AppendInt32(b, int32(bt.rootID))
	b = codec.AppendUint64(b, uint64(bt.degree))

	id, err := bt.mgr.Store(bt.headerID, b)
	if err != nil {
		return fmt.Errorf("storing header: %w", err)
	}
	bt.headerID = id
	bt.stats.Writes++
	return nil
}

func (bt *BTree[K]) loadHeader() error {
	buf, err := bt.mgr.Load(bt.headerID)
	if err != nil {
		return fmt.Errorf("loading header %d: %w", bt.headerID, err)
	}
	bt.stats.Reads++

	if len(buf) != headerSize {
		return fmt.Errorf("%w: header %d is %d bytes, want %d", base.ErrIllegalState, bt.headerID, len(buf), headerSize)
	}
	d := codec.NewDecoder(buf)
	bt.rootID = storage.PageID(d.Int32())
	degree := d.Uint64()
	if degree < 2 || degree > 1<<31 || bt.rootID < 0 {
		return fmt.Errorf("%w: corrupt header %d (root %d, degree %d)", base.ErrIllegalState, bt.headerID, bt.rootID, degree)
	}
	bt.degree = int(degree)
	return nil
}

// measureHeight follows the leftmost path from the root
func (bt *BTree[K]) measureHeight() (int, error) {
	height := 1
	n, err := bt.readNode(bt.rootID)
	if err != nil {
		return 0, err
	}
	for !n.leaf {
		if n, err = bt.readNode(n.children[0]); err != nil {
			return 0, err
		}
		height++
	}
	return height, nil
}

// Degree returns the minimum degree of the tree.
func (bt *BTree[K]) Degree() int { return bt.degree }

// RootID returns the page id of the current root node.
func (bt *BTree[K]) RootID() storage.PageID { return bt.rootID }

// HeaderID returns the page id of the header record. Pass it to WithHeaderID
// to reopen a tree that does not live at page 0.
func (bt *BTree[K]) HeaderID() storage.PageID { return bt.headerID }

// Height returns the number of levels in the tree.
func (bt *BTree[K]) Height() int { return bt.stats.TreeHeight }

// Stats returns a copy of the diagnostic counters.
func (bt *BTree[K]) Stats() Stats { return bt.stats }

func (bt *BTree[K]) maxKeys() int { return 2*bt.degree - 1 }

func (bt *BTree[K]) minKeys() int { return bt.degree - 1 }

func (bt *BTree[K]) readNode(id storage.PageID) (*node[K], error) {
	buf, err := bt.mgr.Load(id)
	if err != nil {
		return nil, fmt.Errorf("reading node %d: %w", id, err)
	}
	bt.stats.Reads++
	return deserialize(bt.keys, id, buf)
}

// writeNode persists n. A node without an identity receives one here.
func (bt *BTree[K]) writeNode(n *node[K]) error {
	buf, err := n.serialize(bt.keys)
	if err != nil {
		return err
	}

	id, err := bt.mgr.Store(n.id, buf)
	if err != nil {
		return fmt.Errorf("writing node %d: %w", n.id, err)
	}
	if n.id == storage.NewPage {
		bt.stats.Nodes++
	}
	n.id = id
	bt.stats.Writes++
	return nil
}

func (bt *BTree[K]) loadPayload(e entry[K]) (Record[K], error) {
	data, err := bt.mgr.Load(e.payload)
	if err != nil {
		return Record[K]{}, fmt.Errorf("loading payload %d: %w", e.payload, err)
	}
	bt.stats.Reads++
	if len(data) != e.length {
		return Record[K]{}, fmt.Errorf("%w: payload %d is %d bytes, entry says %d",
			base.ErrIllegalState, e.payload, len(data), e.length)
	}
	return Record[K]{ID: e.payload, Key: e.key, Data: data}, nil
}
