package logkv

import "errors"

var (
	// ErrInvalidKey is the validation error for a key that is empty or
	// contains whitespace. The text-framed log header is
	// whitespace-delimited, so such a key could never round-trip through
	// the codec. Put and Del report this rejection as false.
	ErrInvalidKey = errors.New("logkv: invalid key")

	// ErrKeyTooLarge is the validation error for a key that exceeds a
	// configured WithMaxKeySize ceiling. Put and Del report this
	// rejection as false.
	ErrKeyTooLarge = errors.New("logkv: key exceeds maximum size")

	// ErrValueTooLarge is the validation error for a value that exceeds
	// a configured WithMaxValueSize ceiling. Put reports this rejection
	// as false.
	ErrValueTooLarge = errors.New("logkv: value exceeds maximum size")

	// ErrClosed names the state of a Store after Close has been called.
	// No operation returns it: after Close, Put, Del and Compact report
	// false and Get reports the key as absent.
	ErrClosed = errors.New("logkv: store is closed")

	// ErrCompactionFailed wraps the underlying cause when Compact cannot
	// complete its rewrite-and-swap. Compact itself reports only false.
	ErrCompactionFailed = errors.New("logkv: compaction failed")
)
