package gist

import "github.com/tanski-labs/fpgist/unionkey"

// MaxKeyCprintLen bounds how many chroma codewords a compressed leaf key
// or a node key may carry on a page.
const MaxKeyCprintLen = unionkey.MaxCprintLen

// sliceWindow chooses the same bounded window Compress uses to shrink a
// long chroma stream, so that both indexing and re-slicing during
// deserialization agree.
func sliceWindow(cprintLen int) (start, end int) {
	return sliceWindowTo(cprintLen, MaxKeyCprintLen)
}

func sliceWindowTo(cprintLen, maxLen int) (start, end int) {
	switch {
	case cprintLen >= 944:
		return 704, 944
	case cprintLen >= 704:
		return 464, 704
	default:
		n := cprintLen
		if n > maxLen {
			n = maxLen
		}
		return 0, n
	}
}

// Compress prepares a leaf record for storage: it slices Cprint down to a
// bounded, deterministic window so the indexed key fits a page regardless
// of the record's true chroma length. Compress is only ever called on leaf
// entries being installed; internal node keys are built directly by
// Union.
func Compress(fp *Entry) *Entry {
	return CompressTo(fp, MaxKeyCprintLen)
}

// CompressTo is Compress with the chroma window clamp overridden, for hosts
// configured with a non-default WithMaxKeyCprintLen.
func CompressTo(fp *Entry, maxLen int) *Entry {
	if fp == nil || !fp.IsLeaf() {
		return fp
	}
	start, end := sliceWindowTo(fp.Leaf.CprintLen(), maxLen)
	if end > fp.Leaf.CprintLen() {
		end = fp.Leaf.CprintLen()
	}

	sliced := *fp.Leaf
	sliced.Cprint = append([]int32(nil), fp.Leaf.Cprint[start:end]...)

	return NewLeafEntry(&sliced)
}
