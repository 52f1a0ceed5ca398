package logkv

import (
	"bytes"
	"fmt"
	"os"
	"testing"
)

func TestCompactionShrinksAndPreservesLatest(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 200; i++ {
		if !db.Put("hot", []byte(fmt.Sprintf("%d", i))) {
			t.Fatalf("Put hot=%d failed", i)
		}
	}
	db.Put("keep", []byte("yes"))
	db.Del("keep")
	db.Put("keep", []byte("final"))

	info1, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	sizeBefore := info1.Size()

	if !db.Compact() {
		t.Fatal("Compact should succeed")
	}

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	sizeAfter := info2.Size()

	if sizeAfter >= sizeBefore {
		t.Fatalf("size after compaction (%d) should be < size before (%d)", sizeAfter, sizeBefore)
	}

	v, ok := db.Get("hot")
	if !ok || !bytes.Equal(v, []byte("199")) {
		t.Fatalf("Get hot = (%q, %v), want (199, true)", v, ok)
	}
	v, ok = db.Get("keep")
	if !ok || !bytes.Equal(v, []byte("final")) {
		t.Fatalf("Get keep = (%q, %v), want (final, true)", v, ok)
	}
}

func TestCompactionEquivalenceAcrossReopen(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		db.Put(fmt.Sprintf("k%d", i), []byte(fmt.Sprintf("v%d", i)))
	}
	db.Del("k10")
	db.Put("k10", []byte("updated"))

	if !db.Compact() {
		t.Fatal("Compact should succeed")
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%d", i)
		want := fmt.Sprintf("v%d", i)
		if key == "k10" {
			want = "updated"
		}
		v, ok := db.Get(key)
		if !ok || string(v) != want {
			t.Fatalf("Get %s = (%q, %v), want (%s, true)", key, v, ok, want)
		}
	}

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%d", i)
		want := fmt.Sprintf("v%d", i)
		if key == "k10" {
			want = "updated"
		}
		v, ok := reopened.Get(key)
		if !ok || string(v) != want {
			t.Fatalf("after reopen, Get %s = (%q, %v), want (%s, true)", key, v, ok, want)
		}
	}
}

func TestCompactionIsIdempotent(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	db.Put("a", []byte("1"))
	db.Put("b", []byte("2"))

	if !db.Compact() {
		t.Fatal("first Compact should succeed")
	}
	info1, _ := os.Stat(path)

	if !db.Compact() {
		t.Fatal("second Compact should succeed")
	}
	info2, _ := os.Stat(path)

	if info1.Size() != info2.Size() {
		t.Fatalf("repeated Compact changed size: %d -> %d", info1.Size(), info2.Size())
	}
	if v, ok := db.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("Get a after repeated Compact = (%q, %v)", v, ok)
	}
}

func TestCompactionLeavesNoSidecarFiles(t *testing.T) {
	path := tempLogPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	db.Put("a", []byte("1"))
	if !db.Compact() {
		t.Fatal("Compact should succeed")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("stray .tmp file after Compact: err=%v", err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("stray .bak file after Compact: err=%v", err)
	}
}

func TestCompactionOnMemoryOnlyIsNoop(t *testing.T) {
	db := OpenMemory()
	defer db.Close()

	db.Put("a", []byte("1"))
	if !db.Compact() {
		t.Fatal("Compact on memory-only store should report success")
	}
	v, ok := db.Get("a")
	if !ok || string(v) != "1" {
		t.Fatalf("Get a after no-op Compact = (%q, %v)", v, ok)
	}
}
