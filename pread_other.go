//go:build !unix

package logkv

import "os"

// preadAt reads len(buf) bytes from f at the given absolute offset.
// The standard library's ReadAt is itself a positioned read that does
// not move any shared cursor, so it satisfies the same no-shared-state
// requirement as pread(2) on platforms without it.
func preadAt(f *os.File, buf []byte, off int64) (int, error) {
	return f.ReadAt(buf, off)
}
