//go:build unix

package logkv

import (
	"os"

	"golang.org/x/sys/unix"
)

// preadAt reads len(buf) bytes from f at the given absolute offset
// using the pread(2) syscall. Unlike a seek-then-read pair, pread does
// not touch any cursor shared with other goroutines operating on the
// same *os.File, so concurrent Gets holding only the Store's shared
// lock cannot race each other on the file position.
func preadAt(f *os.File, buf []byte, off int64) (int, error) {
	return unix.Pread(int(f.Fd()), buf, off)
}
