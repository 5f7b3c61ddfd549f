package playdb

// Query looks up key and returns a copy of its payload, or ErrKeyNotFound.
//
// Entries carry a payload reference at every level, so a key that was
// promoted into a branch node during a split is answered from there without
// descending further.
func (bt *BTree[K]) Query(key K) (*Record[K], error) {
	id := bt.rootID
	for {
		n, err := bt.readNode(id)
		if err != nil {
			return nil, err
		}

		i, found := n.search(key)
		if found {
			rec, err := bt.loadPayload(n.entries[i])
			if err != nil {
				return nil, err
			}
			bt.stats.QueryResults++
			return &rec, nil
		}
		if n.leaf {
			return nil, ErrKeyNotFound
		}
		id = n.children[i]
	}
}
