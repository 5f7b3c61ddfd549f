package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/btree"

	"github.com/xzrunner/playdb/internal/base"
)

// pageTableDegree is the branching factor of the in-memory id -> pages table.
const pageTableDegree = 32

// Disk is a page allocator backed by two files: an index file holding the
// allocator bookkeeping and a data file holding fixed-size pages. Page k
// lives at byte offset k*pageSize of the data file with no per-page header.
//
// A record of length L occupies ceil(L/pageSize) pages (at least one), which
// need not be contiguous. Page writes go to the data file immediately, but
// the bookkeeping is only written to the index file by Flush (and Close). A
// crash between the two leaves the index at its last flushed state.
//
// Flush writes the new index to a temporary file next to it and renames it
// into place, so the index file always holds one complete flushed state.
//
// Disk is not safe for concurrent use.
type Disk struct {
	indexPath string
	data      *os.File
	opts      Options

	pageSize int
	nextPage PageID
	freelist *FreeList
	table    *btree.BTreeG[*record]
	buf      []byte // one page of scratch space
	closed   bool

	reads  uint64
	writes uint64
}

// OpenDisk opens the store at indexPath/dataPath. When both files exist and
// WithOverwrite is not given, the store is reopened and its page size and
// bookkeeping are recovered from the index file. Otherwise a new store is
// created, which requires WithPageSize.
func OpenDisk(indexPath, dataPath string, options ...Option) (*Disk, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	create := opts.overwrite || !exists(indexPath) || !exists(dataPath)
	if create && opts.pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size required to create %s", base.ErrIllegalArgument, dataPath)
	}

	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE | os.O_TRUNC
	}

	data, err := os.OpenFile(dataPath, flag, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: opening data file: %v", base.ErrIllegalArgument, err)
	}

	d := &Disk{
		indexPath: indexPath,
		data:      data,
		opts:      opts,
		freelist:  NewFreeList(),
		table:     btree.NewG[*record](pageTableDegree, recordLess),
	}

	if create {
		d.pageSize = opts.pageSize
		d.nextPage = 0
		// An empty store is a valid flushed state from the start
		if err := d.writeIndex(); err != nil {
			data.Close()
			return nil, err
		}
		opts.logger.Info("created disk store", "data", dataPath, "page_size", d.pageSize)
	} else {
		if err := d.loadIndex(); err != nil {
			data.Close()
			return nil, err
		}
		if opts.pageSize > 0 && opts.pageSize != d.pageSize {
			opts.logger.Warn("ignoring requested page size for existing store",
				"requested", opts.pageSize, "page_size", d.pageSize)
		}
		opts.logger.Info("opened disk store", "data", dataPath, "page_size", d.pageSize,
			"pages", d.nextPage, "free", d.freelist.Len(), "records", d.table.Len())
	}

	d.buf = make([]byte, d.pageSize)
	return d, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadIndex restores the bookkeeping written by the last Flush
func (d *Disk) loadIndex() error {
	buf, err := os.ReadFile(d.indexPath)
	if err != nil {
		return fmt.Errorf("%w: reading index file: %v", base.ErrIllegalState, err)
	}

	st, err := decodeIndex(buf)
	if err != nil {
		return err
	}

	d.pageSize = st.pageSize
	d.nextPage = st.nextPage
	for _, id := range st.free {
		d.freelist.Free(id)
	}
	for _, r := range st.records {
		d.table.ReplaceOrInsert(r)
	}
	return nil
}

// PageSize returns the fixed page size of the store.
func (d *Disk) PageSize() int {
	return d.pageSize
}

// Load reassembles the record stored under id.
func (d *Disk) Load(id PageID) ([]byte, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	r, ok := d.table.Get(&record{id: id})
	if !ok {
		return nil, fmt.Errorf("%w: unknown page id %d", base.ErrInvalidPage, id)
	}

	out := make([]byte, r.length)
	rem := out
	for _, page := range r.pages {
		if err := d.readPage(page); err != nil {
			return nil, err
		}
		n := copy(rem, d.buf)
		rem = rem[n:]
	}
	return out, nil
}

// Store writes data under id, or under a freshly allocated id when id is
// NewPage. An overwrite reuses the record's own pages in order, returns any
// surplus to the freelist and allocates more only when needed.
func (d *Disk) Store(id PageID, data []byte) (PageID, error) {
	if err := d.checkOpen(); err != nil {
		return NewPage, err
	}

	var old []PageID
	if id != NewPage {
		r, ok := d.table.Get(&record{id: id})
		if !ok {
			return NewPage, fmt.Errorf("%w: unknown page id %d", base.ErrIndexOutOfBounds, id)
		}
		old = r.pages
	}

	need := d.pagesFor(len(data))
	pages := make([]PageID, 0, need)
	for i := 0; i < need; i++ {
		var page PageID
		if i < len(old) {
			page = old[i]
		} else {
			page = d.allocate()
		}
		pages = append(pages, page)

		end := min((i+1)*d.pageSize, len(data))
		start := min(i*d.pageSize, end)
		if err := d.writePage(page, data[start:end]); err != nil {
			// Pages taken for this write go back; the record keeps its old pages
			for _, p := range pages[min(len(old), len(pages)):] {
				d.freelist.Free(p)
			}
			return NewPage, err
		}
	}

	for _, page := range old[min(need, len(old)):] {
		d.freelist.Free(page)
	}

	if id == NewPage {
		id = pages[0]
	}
	d.table.ReplaceOrInsert(&record{id: id, length: len(data), pages: pages})
	return id, nil
}

// Delete releases every page of the record stored under id.
func (d *Disk) Delete(id PageID) error {
	if err := d.checkOpen(); err != nil {
		return err
	}

	r, ok := d.table.Delete(&record{id: id})
	if !ok {
		return fmt.Errorf("%w: unknown page id %d", base.ErrInvalidPage, id)
	}
	for _, page := range r.pages {
		d.freelist.Free(page)
	}
	return nil
}

// PagesOf returns the physical pages backing the record stored under id, in
// record order.
func (d *Disk) PagesOf(id PageID) ([]PageID, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	r, ok := d.table.Get(&record{id: id})
	if !ok {
		return nil, fmt.Errorf("%w: unknown page id %d", base.ErrInvalidPage, id)
	}
	return append([]PageID(nil), r.pages...), nil
}

// Flush replaces the index file with the in-memory bookkeeping and, unless
// SyncOff is set, fsyncs the data file and the new index.
func (d *Disk) Flush() error {
	if err := d.checkOpen(); err != nil {
		return err
	}

	if d.opts.syncMode == SyncEveryFlush {
		if err := datasync(d.data); err != nil {
			return fmt.Errorf("%w: syncing data file: %v", base.ErrIllegalState, err)
		}
	}
	return d.writeIndex()
}

// writeIndex writes the bookkeeping to a temporary file and renames it over
// the index file
func (d *Disk) writeIndex() error {
	st := &indexState{
		pageSize: d.pageSize,
		nextPage: d.nextPage,
		free:     d.freelist.Pages(),
		records:  make([]*record, 0, d.table.Len()),
	}
	d.table.Ascend(func(r *record) bool {
		st.records = append(st.records, r)
		return true
	})
	buf := encodeIndex(st)

	sync := d.opts.syncMode == SyncEveryFlush
	tmp := d.indexPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: creating index file: %v", base.ErrIllegalState, err)
	}
	_, err = f.Write(buf)
	if err == nil && sync {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: writing index file: %v", base.ErrIllegalState, err)
	}

	if err := os.Rename(tmp, d.indexPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replacing index file: %v", base.ErrIllegalState, err)
	}
	if sync {
		if err := syncDir(filepath.Dir(d.indexPath)); err != nil {
			return fmt.Errorf("%w: syncing index directory: %v", base.ErrIllegalState, err)
		}
	}

	d.opts.logger.Info("flushed disk store", "pages", d.nextPage,
		"free", len(st.free), "records", len(st.records), "index_bytes", len(buf))
	return nil
}

// Close flushes the bookkeeping and releases both files. The files are
// closed even when the flush fails. Close is idempotent.
func (d *Disk) Close() error {
	if d.closed {
		return nil
	}

	flushErr := d.Flush()
	if flushErr != nil {
		d.opts.logger.Warn("flush on close failed", "error", flushErr)
	}
	d.closed = true
	d.buf = nil

	return errors.Join(flushErr, d.data.Close())
}

// DiskStats holds allocator and I/O statistics
type DiskStats struct {
	Pages     int    // Pages ever allocated (the allocation counter)
	FreePages int    // Pages waiting for reuse
	Records   int    // Live records
	Reads     uint64 // Physical page reads
	Writes    uint64 // Physical page writes
}

// Stats returns allocator and I/O statistics
func (d *Disk) Stats() DiskStats {
	return DiskStats{
		Pages:     int(d.nextPage),
		FreePages: d.freelist.Len(),
		Records:   d.table.Len(),
		Reads:     d.reads,
		Writes:    d.writes,
	}
}

func (d *Disk) checkOpen() error {
	if d.closed {
		return fmt.Errorf("%w: disk store closed", base.ErrIllegalState)
	}
	return nil
}

// pagesFor returns how many pages a record of n bytes occupies. Empty
// records still take one page so that they have an identity.
func (d *Disk) pagesFor(n int) int {
	return max(1, (n+d.pageSize-1)/d.pageSize)
}

// allocate pops the smallest free page or extends the file
func (d *Disk) allocate() PageID {
	if id, ok := d.freelist.Allocate(); ok {
		return id
	}
	id := d.nextPage
	d.nextPage++
	return id
}

func (d *Disk) readPage(page PageID) error {
	offset := int64(page) * int64(d.pageSize)
	n, err := d.data.ReadAt(d.buf, offset)
	d.reads++
	if err != nil && !(errors.Is(err, io.EOF) && n == len(d.buf)) {
		return fmt.Errorf("%w: reading page %d: %v", base.ErrIllegalState, page, err)
	}
	return nil
}

// writePage writes one page, zero padding the tail of a partial page
func (d *Disk) writePage(page PageID, data []byte) error {
	n := copy(d.buf, data)
	clear(d.buf[n:])

	offset := int64(page) * int64(d.pageSize)
	if _, err := d.data.WriteAt(d.buf, offset); err != nil {
		return fmt.Errorf("%w: writing page %d: %v", base.ErrIllegalState, page, err)
	}
	d.writes++
	return nil
}
