package logkv

import (
	"bytes"
	"os"
	"testing"
	"time"
)

func TestSyncWritesOption(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path, WithSyncWrites(true))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if !db.Put("a", []byte("1")) {
		t.Fatal("Put with WithSyncWrites should still succeed")
	}
	v, ok := db.Get("a")
	if !ok || !bytes.Equal(v, []byte("1")) {
		t.Fatalf("Get a = (%q, %v)", v, ok)
	}
}

func TestAutoCompactOption(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path, WithAutoCompact(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 200; i++ {
		db.Put("hot", []byte("a reasonably long value to make the log grow"))
	}

	sizeBefore, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-deadline:
			t.Fatal("auto-compact never shrank the log within the deadline")
		case <-tick.C:
			v, ok := db.Get("hot")
			if !ok || string(v) != "a reasonably long value to make the log grow" {
				t.Fatalf("Get hot during auto-compact = (%q, %v)", v, ok)
			}
			if fi, err := os.Stat(path); err == nil && fi.Size() < sizeBefore.Size() {
				return
			}
		}
	}
}
