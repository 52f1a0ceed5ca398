package logkv

// replay rebuilds the index by decoding the log from byte zero to the
// first corrupt or incomplete record. It is invoked once when Open is
// called, and again after compaction swaps in a freshly written log.
//
// A decode corruption halts replay and returns normally: every record
// successfully decoded up to that point remains in the index. This is
// the crash-safety contract — a torn trailing record is silently
// dropped from the logical state, never treated as a fatal error.
func (s *Store) replay() error {
	s.idx.clear()

	if s.file == nil {
		return nil
	}

	r, err := newLineReader(s.file)
	if err != nil {
		return err
	}

	var pos int64
	for {
		rec := decodeRecord(r, &pos)
		switch rec.kind {
		case recEOF, recCorrupt:
			return nil
		case recPut:
			s.idx.put(rec.key, entry{located: true, offset: rec.offset, size: rec.size})
		case recDel:
			s.idx.del(rec.key)
		}
	}
}
