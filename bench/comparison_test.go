package bench

import (
	"encoding/binary"
	"flag"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/dgraph-io/badger/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/xzrunner/playdb"
	"github.com/xzrunner/playdb/storage"
)

var (
	benchPlaydb = flag.Bool("playdb", false, "run only playdb benchmarks")
)

const (
	benchValueSize  = 1024
	benchNumRecords = 10000
	benchPageSize   = 4096
	benchDegree     = 64
)

var bucketName = []byte("bench")

func encodeKey(k int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

func skipOthers(b *testing.B) {
	b.Helper()
	if *benchPlaydb {
		b.Skip()
	}
}

// openPlaydbDisk creates a fresh disk-backed tree under b.TempDir()
func openPlaydbDisk(b *testing.B, mode storage.SyncMode) (*playdb.BTree[int64], *storage.Disk) {
	b.Helper()

	dir := b.TempDir()
	disk, err := storage.OpenDisk(filepath.Join(dir, "bench.idx"), filepath.Join(dir, "bench.dat"),
		storage.WithOverwrite(), storage.WithPageSize(benchPageSize), storage.WithSyncMode(mode))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = disk.Close() })

	bt, err := playdb.Open(disk, playdb.Int64Key, playdb.WithDegree(benchDegree))
	if err != nil {
		b.Fatal(err)
	}
	return bt, disk
}

func openBolt(b *testing.B, noSync bool) *bolt.DB {
	b.Helper()

	db, err := bolt.Open(filepath.Join(b.TempDir(), "bench.db"), 0600, &bolt.Options{NoSync: noSync})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		b.Fatal(err)
	}
	return db
}

func openBadger(b *testing.B, sync bool) *badger.DB {
	b.Helper()

	opts := badger.DefaultOptions(b.TempDir()).WithSyncWrites(sync).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db
}

func openPebble(b *testing.B) *pebble.DB {
	b.Helper()

	db, err := pebble.Open(b.TempDir(), &pebble.Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db
}

// Write Benchmarks

func BenchmarkSequentialWrite(b *testing.B) {
	value := make([]byte, benchValueSize)

	// Flush after every insert is playdb's closest match to a synced commit
	b.Run("Playdb/SyncOn", func(b *testing.B) {
		bt, disk := openPlaydbDisk(b, storage.SyncEveryFlush)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if err := bt.InsertData(int64(i), value); err != nil {
				b.Fatal(err)
			}
			if err := disk.Flush(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Playdb/SyncOff", func(b *testing.B) {
		bt, _ := openPlaydbDisk(b, storage.SyncOff)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if err := bt.InsertData(int64(i), value); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Playdb/Memory", func(b *testing.B) {
		bt, err := playdb.Open(storage.NewMemory(), playdb.Int64Key, playdb.WithDegree(benchDegree))
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if err := bt.InsertData(int64(i), value); err != nil {
				b.Fatal(err)
			}
		}
	})

	for _, noSync := range []bool{false, true} {
		name := "Bbolt/SyncOn"
		if noSync {
			name = "Bbolt/SyncOff"
		}
		b.Run(name, func(b *testing.B) {
			skipOthers(b)
			db := openBolt(b, noSync)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				err := db.Update(func(tx *bolt.Tx) error {
					return tx.Bucket(bucketName).Put(encodeKey(int64(i)), value)
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}

	for _, sync := range []bool{true, false} {
		name := "Badger/SyncOff"
		if sync {
			name = "Badger/SyncOn"
		}
		b.Run(name, func(b *testing.B) {
			skipOthers(b)
			db := openBadger(b, sync)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				err := db.Update(func(txn *badger.Txn) error {
					return txn.Set(encodeKey(int64(i)), value)
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}

	for _, opt := range []*pebble.WriteOptions{pebble.Sync, pebble.NoSync} {
		name := "Pebble/SyncOn"
		if opt == pebble.NoSync {
			name = "Pebble/SyncOff"
		}
		b.Run(name, func(b *testing.B) {
			skipOthers(b)
			db := openPebble(b)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := db.Set(encodeKey(int64(i)), value, opt); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Read Benchmarks

func BenchmarkRandomRead(b *testing.B) {
	value := make([]byte, benchValueSize)
	rng := rand.New(rand.NewSource(42))
	keys := make([]int64, benchNumRecords)
	for i := range keys {
		keys[i] = rng.Int63n(benchNumRecords)
	}

	b.Run("Playdb", func(b *testing.B) {
		bt, disk := openPlaydbDisk(b, storage.SyncOff)
		for i := 0; i < benchNumRecords; i++ {
			if err := bt.InsertData(int64(i), value); err != nil {
				b.Fatal(err)
			}
		}
		if err := disk.Flush(); err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if _, err := bt.Query(keys[i%len(keys)]); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Bbolt", func(b *testing.B) {
		skipOthers(b)
		db := openBolt(b, true)
		err := db.Update(func(tx *bolt.Tx) error {
			bkt := tx.Bucket(bucketName)
			for i := 0; i < benchNumRecords; i++ {
				if err := bkt.Put(encodeKey(int64(i)), value); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			err := db.View(func(tx *bolt.Tx) error {
				_ = tx.Bucket(bucketName).Get(encodeKey(keys[i%len(keys)]))
				return nil
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Badger", func(b *testing.B) {
		skipOthers(b)
		db := openBadger(b, false)
		wb := db.NewWriteBatch()
		for i := 0; i < benchNumRecords; i++ {
			if err := wb.Set(encodeKey(int64(i)), value); err != nil {
				b.Fatal(err)
			}
		}
		if err := wb.Flush(); err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			err := db.View(func(txn *badger.Txn) error {
				item, err := txn.Get(encodeKey(keys[i%len(keys)]))
				if err != nil {
					return err
				}
				_, err = item.ValueCopy(nil)
				return err
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Pebble", func(b *testing.B) {
		skipOthers(b)
		db := openPebble(b)
		batch := db.NewBatch()
		for i := 0; i < benchNumRecords; i++ {
			if err := batch.Set(encodeKey(int64(i)), value, nil); err != nil {
				b.Fatal(err)
			}
		}
		if err := batch.Commit(pebble.NoSync); err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			v, closer, err := db.Get(encodeKey(keys[i%len(keys)]))
			if err != nil {
				b.Fatal(err)
			}
			_ = v
			_ = closer.Close()
		}
	})
}

// Scan Benchmarks

func BenchmarkFullScan(b *testing.B) {
	value := make([]byte, 128)

	b.Run("Playdb/LayerTraverse", func(b *testing.B) {
		bt, _ := openPlaydbDisk(b, storage.SyncOff)
		for i := 0; i < benchNumRecords; i++ {
			if err := bt.InsertData(int64(i), value); err != nil {
				b.Fatal(err)
			}
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			var n int
			err := bt.LayerTraverse(playdb.VisitFuncs[int64]{Data: func(playdb.Record[int64]) error {
				n++
				return nil
			}})
			if err != nil {
				b.Fatal(err)
			}
			if n == 0 {
				b.Fatal("empty scan")
			}
		}
	})

	b.Run("Bbolt/Cursor", func(b *testing.B) {
		skipOthers(b)
		db := openBolt(b, true)
		err := db.Update(func(tx *bolt.Tx) error {
			bkt := tx.Bucket(bucketName)
			for i := 0; i < benchNumRecords; i++ {
				if err := bkt.Put(encodeKey(int64(i)), value); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = db.View(func(tx *bolt.Tx) error {
				c := tx.Bucket(bucketName).Cursor()
				for k, _ := c.First(); k != nil; k, _ = c.Next() {
				}
				return nil
			})
		}
	})

	b.Run("Pebble/Iterator", func(b *testing.B) {
		skipOthers(b)
		db := openPebble(b)
		for i := 0; i < benchNumRecords; i++ {
			if err := db.Set(encodeKey(int64(i)), value, pebble.NoSync); err != nil {
				b.Fatal(err)
			}
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			iter, err := db.NewIter(nil)
			if err != nil {
				b.Fatal(err)
			}
			for iter.First(); iter.Valid(); iter.Next() {
				_ = iter.Value()
			}
			_ = iter.Close()
		}
	})
}
