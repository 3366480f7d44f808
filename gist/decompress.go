package gist

// corruptCprintLenCeiling mirrors fingerprint's defensive bound: a page
// claiming a chroma length at or beyond this is corrupt, not merely long.
const corruptCprintLenCeiling = 100000

// Decompress returns e unchanged to the caller, after re-validating and
// re-slicing its key defensively. Decompress never mutates e's backing
// arrays; ownership of whatever buffer e.Key/e.Leaf point to remains with
// the caller.
func Decompress(e *Entry) (*Entry, error) {
	if e == nil {
		return nil, ErrNilEntry
	}
	if e.Key.CprintLen() >= corruptCprintLenCeiling {
		return nil, &ErrCorruptEntry{CprintLen: e.Key.CprintLen()}
	}

	start, end := sliceWindow(e.Key.CprintLen())
	if end > e.Key.CprintLen() {
		end = e.Key.CprintLen()
	}
	if start == 0 && end == e.Key.CprintLen() {
		return e, nil
	}

	reKey := e.Key.Clone()
	reKey.Cprint = append([]int32(nil), e.Key.Cprint[start:end]...)

	if e.IsLeaf() {
		sliced := *e.Leaf
		sliced.Cprint = reKey.Cprint
		return NewLeafEntry(&sliced), nil
	}
	return NewNodeEntry(reKey, e.Child), nil
}
