package playdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzrunner/playdb/storage"
)

func TestNodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		node *node[int64]
	}{
		{
			name: "empty_leaf",
			node: &node[int64]{id: 4, leaf: true, entries: []entry[int64]{}},
		},
		{
			name: "leaf",
			node: &node[int64]{id: 7, leaf: true, entries: []entry[int64]{
				{key: -5, payload: 10, length: 3},
				{key: 0, payload: 11, length: 0},
				{key: 1 << 40, payload: 12, length: 1 << 20},
			}},
		},
		{
			name: "branch",
			node: &node[int64]{id: 9, leaf: false,
				entries:  []entry[int64]{{key: 10, payload: 2, length: 6}, {key: 20, payload: 3, length: 7}},
				children: []storage.PageID{1, 5, 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := tt.node.serialize(Int64Key)
			require.NoError(t, err)
			assert.Len(t, buf, tt.node.size(Int64Key))

			got, err := deserialize(Int64Key, tt.node.id, buf)
			require.NoError(t, err)
			assert.Equal(t, tt.node.id, got.id)
			assert.Equal(t, tt.node.leaf, got.leaf)
			assert.Equal(t, tt.node.entries, got.entries)
			assert.Equal(t, len(tt.node.children), len(got.children))
			if !tt.node.leaf {
				assert.Equal(t, tt.node.children, got.children)
			}
		})
	}
}

func TestNodeSizeFromEntryCount(t *testing.T) {
	t.Parallel()

	leaf := &node[int32]{leaf: true, entries: make([]entry[int32], 5)}
	assert.Equal(t, nodeHeaderSize+5*(4+entryRefSize), leaf.size(Int32Key))

	branch := &node[int32]{entries: make([]entry[int32], 5), children: make([]storage.PageID, 6)}
	assert.Equal(t, nodeHeaderSize+5*(4+entryRefSize)+6*childRefSize, branch.size(Int32Key))
}

func TestNodeStringKeys(t *testing.T) {
	t.Parallel()

	n := &node[string]{id: 1, leaf: true, entries: []entry[string]{
		{key: "", payload: 1, length: 1},
		{key: "apple", payload: 2, length: 2},
		{key: "banana", payload: 3, length: 3},
	}}

	buf, err := n.serialize(StringKey)
	require.NoError(t, err)
	assert.Len(t, buf, n.size(StringKey))

	got, err := deserialize(StringKey, 1, buf)
	require.NoError(t, err)
	assert.Equal(t, n.entries, got.entries)
}

func TestNodeShiftPrimitives(t *testing.T) {
	t.Parallel()

	n := newNode[int](true)
	n.insertEntryAt(0, entry[int]{key: 20})
	n.insertEntryAt(0, entry[int]{key: 10})
	n.insertEntryAt(2, entry[int]{key: 40})
	n.insertEntryAt(2, entry[int]{key: 30})
	assert.Equal(t, []int{10, 20, 30, 40}, keysOf(n))
	assert.Equal(t, storage.NewPage, n.id, "shifts do no I/O")

	removed := n.deleteEntryAt(1)
	assert.Equal(t, 20, removed.key)
	assert.Equal(t, []int{10, 30, 40}, keysOf(n))

	b := newNode[int](false)
	b.children = []storage.PageID{1, 3}
	b.insertChildAt(1, 2)
	b.insertChildAt(3, 4)
	assert.Equal(t, []storage.PageID{1, 2, 3, 4}, b.children)
}

func TestNodeSearch(t *testing.T) {
	t.Parallel()

	n := &node[int]{leaf: true, entries: []entry[int]{{key: 3}, {key: 5}, {key: 9}}}

	tests := []struct {
		key   int
		want  int
		found bool
	}{
		{key: 1, want: 0},
		{key: 3, want: 0, found: true},
		{key: 4, want: 1},
		{key: 9, want: 2, found: true},
		{key: 10, want: 3},
	}
	for _, tt := range tests {
		i, found := n.search(tt.key)
		assert.Equal(t, tt.want, i, "key %d", tt.key)
		assert.Equal(t, tt.found, found, "key %d", tt.key)
	}
}

func TestNodeDecodeErrors(t *testing.T) {
	t.Parallel()

	good := &node[int32]{id: 3, entries: []entry[int32]{{key: 1, payload: 2, length: 3}}, children: []storage.PageID{4, 5}}
	buf, err := good.serialize(Int32Key)
	require.NoError(t, err)

	_, err = deserialize(Int32Key, 3, buf[:len(buf)-1])
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = deserialize(Int32Key, 3, append(buf, 0))
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = deserialize(Int32Key, 3, []byte{1, 0xFF, 0xFF, 0xFF, 0x7F})
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = deserialize(Int32Key, 3, nil)
	assert.ErrorIs(t, err, ErrShortBuffer)

	bad := &node[int32]{id: 3, entries: good.entries, children: []storage.PageID{4}}
	_, err = bad.serialize(Int32Key)
	assert.ErrorIs(t, err, ErrIllegalState)
}

func keysOf[K int | int32 | int64 | string](n *node[K]) []K {
	keys := make([]K, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.key
	}
	return keys
}
