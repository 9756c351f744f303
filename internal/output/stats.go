package output

import (
	"os"

	"finsim/internal/stats"
)

// AppendStats appends rec to path in a single write on an O_APPEND handle,
// then syncs and closes it. Concurrent writers may reorder records but never
// split one. When newline is false no terminator is written.
func AppendStats(path string, rec stats.Record, newline bool) (err error) {
	line := rec.Line()
	if newline {
		line += "\n"
	}
	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ioErr("open", path, err)
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = ioErr("close", path, cerr)
		}
	}()
	if _, err := fh.Write([]byte(line)); err != nil {
		return ioErr("append", path, err)
	}
	return ioErr("sync", path, fh.Sync())
}
