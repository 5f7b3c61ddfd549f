// Package logger adapts popular logging libraries to playdb.Logger.
//
// The same adapter can be handed to both playdb.WithLogger and
// storage.WithLogger, since both accept the same interface. The standard
// library's *slog.Logger satisfies it directly.
//
// Example with zap:
//
//	zl, _ := zap.NewProduction()
//	log := logger.NewZap(zl)
//
//	disk, err := storage.OpenDisk("tree.idx", "tree.dat",
//	    storage.WithPageSize(4096), storage.WithLogger(log))
//	if err != nil {
//	    panic(err)
//	}
//	defer disk.Close()
//
//	bt, err := playdb.Open(disk, playdb.Int64Key,
//	    playdb.WithDegree(64), playdb.WithLogger(log))
package logger
