package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/xzrunner/playdb/internal/base"
	"github.com/xzrunner/playdb/internal/codec"
)

// Index file layout (little-endian, rewritten in full on every flush):
//
//	page_size     uint64
//	next_page     int32
//	free_count    uint64, then free_count x int32 page numbers (ascending)
//	record_count  uint64, then record_count x
//	              { id int32, length uint64, page_count uint64, page_count x int32 }
//	checksum      uint64 xxhash of every preceding byte
const checksumSize = 8

// record is the bookkeeping for one logical id. The id is always the first
// backing page.
type record struct {
	id     PageID
	length int
	pages  []PageID
}

func recordLess(a, b *record) bool { return a.id < b.id }

type indexState struct {
	pageSize int
	nextPage PageID
	free     []PageID
	records  []*record
}

func encodeIndex(st *indexState) []byte {
	size := 8 + 4 + 8 + 4*len(st.free) + 8 + checksumSize
	for _, r := range st.records {
		size += 4 + 8 + 8 + 4*len(r.pages)
	}

	b := make([]byte, 0, size)
	b = codec.AppendUint64(b, uint64(st.pageSize))
	b = codec.AppendInt32(b, int32(st.nextPage))

	b = codec.AppendUint64(b, uint64(len(st.free)))
	for _, id := range st.free {
		b = codec.AppendInt32(b, int32(id))
	}

	b = codec.AppendUint64(b, uint64(len(st.records)))
	for _, r := range st.records {
		b = codec.AppendInt32(b, int32(r.id))
		b = codec.AppendUint64(b, uint64(r.length))
		b = codec.AppendUint64(b, uint64(len(r.pages)))
		for _, p := range r.pages {
			b = codec.AppendInt32(b, int32(p))
		}
	}

	return codec.AppendUint64(b, xxhash.Sum64(b))
}

func decodeIndex(buf []byte) (*indexState, error) {
	if len(buf) < checksumSize {
		return nil, fmt.Errorf("%w: index file truncated (%d bytes)", base.ErrIllegalState, len(buf))
	}
	body := buf[:len(buf)-checksumSize]
	want := binary.LittleEndian.Uint64(buf[len(body):])
	if got := xxhash.Sum64(body); got != want {
		return nil, fmt.Errorf("%w: index checksum mismatch", base.ErrIllegalState)
	}

	d := codec.NewDecoder(body)
	st := &indexState{
		pageSize: int(d.Uint64()),
		nextPage: PageID(d.Int32()),
	}
	if d.Err() != nil {
		return nil, fmt.Errorf("reading page size: %w", d.Err())
	}
	if st.pageSize <= 0 || st.nextPage < 0 {
		return nil, fmt.Errorf("%w: bad index header (page size %d, next page %d)",
			base.ErrIllegalState, st.pageSize, st.nextPage)
	}

	count, err := readCount(d, 4)
	if err != nil {
		return nil, fmt.Errorf("reading free pages: %w", err)
	}
	// Every page below next_page is free, owned by one record, or neither
	seen := make(map[PageID]struct{}, count)
	claim := func(page PageID) bool {
		if _, dup := seen[page]; dup {
			return false
		}
		seen[page] = struct{}{}
		return true
	}

	st.free = make([]PageID, count)
	for i := range st.free {
		st.free[i] = PageID(d.Int32())
		if st.free[i] < 0 || st.free[i] >= st.nextPage {
			return nil, fmt.Errorf("%w: free page %d out of range", base.ErrIllegalState, st.free[i])
		}
		if !claim(st.free[i]) {
			return nil, fmt.Errorf("%w: page %d freed twice", base.ErrIllegalState, st.free[i])
		}
	}

	count, err = readCount(d, 4+8+8)
	if err != nil {
		return nil, fmt.Errorf("reading page table: %w", err)
	}
	st.records = make([]*record, 0, count)
	for i := 0; i < count; i++ {
		r := &record{
			id:     PageID(d.Int32()),
			length: int(d.Uint64()),
		}
		n, err := readCount(d, 4)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", r.id, err)
		}
		r.pages = make([]PageID, n)
		for j := range r.pages {
			r.pages[j] = PageID(d.Int32())
			if r.pages[j] < 0 || r.pages[j] >= st.nextPage {
				return nil, fmt.Errorf("%w: record %d references page %d beyond %d",
					base.ErrIllegalState, r.id, r.pages[j], st.nextPage)
			}
			if !claim(r.pages[j]) {
				return nil, fmt.Errorf("%w: record %d references page %d which is free or already owned",
					base.ErrIllegalState, r.id, r.pages[j])
			}
		}
		if n == 0 || r.pages[0] != r.id || r.length < 0 || r.length > n*st.pageSize {
			return nil, fmt.Errorf("%w: inconsistent record %d", base.ErrIllegalState, r.id)
		}
		st.records = append(st.records, r)
	}

	if d.Err() != nil {
		return nil, d.Err()
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in index", base.ErrIllegalState, d.Remaining())
	}
	return st, nil
}

// readCount reads a uint64 element count and rejects counts that cannot fit
// in the remaining input, so a corrupt count never drives a huge allocation.
func readCount(d *codec.Decoder, minElem int) (int, error) {
	n := d.Uint64()
	if d.Err() != nil {
		return 0, d.Err()
	}
	if n > uint64(d.Remaining()/minElem) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bytes", base.ErrIllegalState, n, d.Remaining())
	}
	return int(n), nil
}
