package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/xzrunner/playdb"
	"github.com/xzrunner/playdb/logger"
	"github.com/xzrunner/playdb/storage"
)

const (
	indexFile = "playdb.idx"
	dataFile  = "playdb.dat"
)

// demoKeys build a two-level tree at degree 3
var demoKeys = []int64{3, 10, 20, 5, 6, 12, 30, 7, 17}

// treeFlags are shared by the commands that work on a tree file
type treeFlags struct {
	dir      *string
	pageSize *int
	degree   *int
	verbose  *bool
}

func addTreeFlags(fs *flag.FlagSet) treeFlags {
	return treeFlags{
		dir:      fs.String("dir", ".", "Directory holding "+indexFile+" and "+dataFile),
		pageSize: fs.Int("page-size", 4096, "Page size when creating a new store"),
		degree:   fs.Int("degree", 64, "Minimum degree when creating a new tree"),
		verbose:  fs.Bool("v", false, "Log store and tree events to stderr"),
	}
}

func newLogger(verbose bool) (playdb.Logger, func()) {
	if !verbose {
		return playdb.DiscardLogger{}, func() {}
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	zl, err := cfg.Build()
	if err != nil {
		return playdb.DiscardLogger{}, func() {}
	}
	return logger.NewZap(zl), func() { _ = zl.Sync() }
}

// openTree opens the disk store under -dir and the tree in it. A tree is
// created when the store is new and create is set.
func openTree(f treeFlags, create bool) (*playdb.BTree[int64], *storage.Disk, func(), error) {
	log, syncLog := newLogger(*f.verbose)

	idx := filepath.Join(*f.dir, indexFile)
	dat := filepath.Join(*f.dir, dataFile)
	_, statErr := os.Stat(idx)
	fresh := errors.Is(statErr, os.ErrNotExist)
	if fresh && !create {
		syncLog()
		return nil, nil, nil, fmt.Errorf("no tree in %s", *f.dir)
	}
	if fresh && *f.degree < 2 {
		syncLog()
		return nil, nil, nil, fmt.Errorf("%w: degree must be at least 2, got %d", playdb.ErrIllegalArgument, *f.degree)
	}

	disk, err := storage.OpenDisk(idx, dat, storage.WithPageSize(*f.pageSize), storage.WithLogger(log))
	if err != nil {
		syncLog()
		return nil, nil, nil, err
	}

	var opts []playdb.Option
	opts = append(opts, playdb.WithLogger(log))
	if fresh {
		opts = append(opts, playdb.WithDegree(*f.degree))
	}
	bt, err := playdb.Open(disk, playdb.Int64Key, opts...)
	if err != nil {
		_ = disk.Close()
		// Leave no half-created store behind for the next command to trip on
		if fresh {
			_ = os.Remove(idx)
			_ = os.Remove(dat)
		}
		syncLog()
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := disk.Close(); err != nil {
			fmt.Fprintf(stderr, "Error closing store: %v\n", err)
		}
		syncLog()
	}
	return bt, disk, closeFn, nil
}

// demoCmd runs the degree 3 walkthrough on an in-memory store.
func demoCmd(args []string) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	degree := fs.Int("degree", 3, "Minimum degree")
	verbose := fs.Bool("v", false, "Log tree events to stderr")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	log, syncLog := newLogger(*verbose)
	defer syncLog()

	bt, err := playdb.Open(storage.NewMemory(), playdb.Int64Key,
		playdb.WithDegree(*degree), playdb.WithLogger(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, k := range demoKeys {
		if err := bt.InsertData(k, []byte("value-"+strconv.FormatInt(k, 10))); err != nil {
			fmt.Fprintf(stderr, "Error inserting %d: %v\n", k, err)
			return 1
		}
	}

	if err := bt.LayerTraverse(printVisitor{}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout)
	for _, k := range []int64{6, 15} {
		printQuery(bt, k)
	}

	printStats(bt.Stats())
	return 0
}

// insertCmd handles the insert command.
func insertCmd(args []string) int {
	fs := flag.NewFlagSet("insert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tf := addTreeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 || len(rest)%2 != 0 {
		fmt.Fprintln(stderr, "Error: expected key value pairs")
		return 1
	}

	keys := make([]int64, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		k, err := strconv.ParseInt(rest[i], 10, 64)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid key %q\n", rest[i])
			return 1
		}
		keys = append(keys, k)
	}

	bt, _, closeFn, err := openTree(tf, true)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening tree: %v\n", err)
		return 1
	}
	defer closeFn()

	for i, k := range keys {
		if err := bt.InsertData(k, []byte(rest[2*i+1])); err != nil {
			fmt.Fprintf(stderr, "Error inserting %d: %v\n", k, err)
			return 1
		}
	}
	fmt.Fprintf(stdout, "inserted %d keys (height %d)\n", len(keys), bt.Height())
	return 0
}

// queryCmd handles the query command. It exits with 2 when any key is missing.
func queryCmd(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tf := addTreeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Error: expected at least one key")
		return 1
	}

	bt, _, closeFn, err := openTree(tf, false)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening tree: %v\n", err)
		return 1
	}
	defer closeFn()

	code := 0
	for _, arg := range fs.Args() {
		k, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			fmt.Fprintf(stderr, "Error: invalid key %q\n", arg)
			return 1
		}
		if !printQuery(bt, k) {
			code = 2
		}
	}
	return code
}

// dumpCmd handles the dump command.
func dumpCmd(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tf := addTreeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	bt, disk, closeFn, err := openTree(tf, false)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening tree: %v\n", err)
		return 1
	}
	defer closeFn()

	fmt.Fprintf(stdout, "header %d, root %d, degree %d, height %d\n",
		bt.HeaderID(), bt.RootID(), bt.Degree(), bt.Height())
	if err := bt.LayerTraverse(printVisitor{}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ds := disk.Stats()
	fmt.Fprintf(stdout, "\nstore: page size %d, %d pages, %d free, %d records\n",
		disk.PageSize(), ds.Pages, ds.FreePages, ds.Records)
	return 0
}

// printQuery prints the result of one lookup and reports whether it hit
func printQuery(bt *playdb.BTree[int64], k int64) bool {
	rec, err := bt.Query(k)
	switch {
	case errors.Is(err, playdb.ErrKeyNotFound):
		fmt.Fprintf(stdout, "%d: not found\n", k)
		return false
	case err != nil:
		fmt.Fprintf(stdout, "%d: error: %v\n", k, err)
		return false
	}
	fmt.Fprintf(stdout, "%d: %q (record %d)\n", k, rec.Data, rec.ID)
	return true
}

func printStats(s playdb.Stats) {
	fmt.Fprintf(stdout, "\nreads %d, writes %d, splits %d, nodes %d, data %d, height %d\n",
		s.Reads, s.Writes, s.Splits, s.Nodes, s.Data, s.TreeHeight)
}

// printVisitor writes one line per node and one indented line per payload
type printVisitor struct{}

func (printVisitor) VisitNode(n playdb.NodeInfo) error {
	kind := "branch"
	if n.Leaf {
		kind = "leaf"
	}
	_, err := fmt.Fprintf(stdout, "%s %d: %d keys, %d children\n", kind, n.ID, n.Entries, n.Children)
	return err
}

func (printVisitor) VisitData(r playdb.Record[int64]) error {
	_, err := fmt.Fprintf(stdout, "  %d => %q\n", r.Key, r.Data)
	return err
}
