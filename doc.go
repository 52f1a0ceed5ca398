// Package logkv is an embeddable key/value store backed by an append-only
// log file.
//
// A Store is opened bound to a single log path, or to memory only. It
// serves Put, Get, and Del over non-empty keys without whitespace and
// arbitrary byte-string values,
// survives process crashes (a torn trailing record left by a crash is
// truncated from the recovered state, not treated as fatal), and supports
// online compaction that rewrites the log to hold only live keys.
//
// The package does not implement a CLI, a benchmark harness, or a network
// protocol; those are expected to live on top of a Store.
package logkv
