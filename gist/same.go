package gist

// Same reports whether two node keys carry identical images, letting the
// host skip rewriting a page whose key hasn't actually changed.
//
// Historical note: the PostgreSQL extension this index is descended from
// returned memcmp(...) != 0 here — true when the bytes differ, the
// opposite of what the name promises. That reads as a latent bug rather
// than a deliberate inversion, so it is not reproduced; Same returns true
// on equality, as its name says.
func Same(a, b *Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Key.CprintLen() != b.Key.CprintLen() {
		return false
	}
	if a.Key.MinSongLen != b.Key.MinSongLen || a.Key.MaxSongLen != b.Key.MaxSongLen {
		return false
	}
	if a.Key.R != b.Key.R || a.Key.Dom != b.Key.Dom {
		return false
	}
	return sameWords(a.Key.Cprint, b.Key.Cprint)
}

func sameWords(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
