package fingerprint

import (
	"encoding/binary"
	"fmt"
)

// binaryHeaderLen is the encoded size, in bytes, of the fixed header
// (songlen, bit_rate, num_errors, cprint_len), each a little-endian int32.
const binaryHeaderLen = 4 * 4

// MarshalBinary encodes fp as the on-page blob: header, R, Dom, then
// cprint_len little-endian int32 codewords. There is no length prefix here;
// callers that frame records on a page (gist.Compress and friends) add
// their own.
func (fp *FP) MarshalBinary() ([]byte, error) {
	if err := fp.Validate(); err != nil {
		return nil, err
	}

	size := binaryHeaderLen + RLen + DomLen + 4*len(fp.Cprint)
	buf := make([]byte, size)

	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(fp.SongLen))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(fp.BitRate))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(fp.NumErrors))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(fp.Cprint)))
	off += 4

	copy(buf[off:], fp.R[:])
	off += RLen
	copy(buf[off:], fp.Dom[:])
	off += DomLen

	for _, c := range fp.Cprint {
		binary.LittleEndian.PutUint32(buf[off:], uint32(c))
		off += 4
	}

	return buf, nil
}

// UnmarshalBinary decodes a blob produced by MarshalBinary. A cprint_len at
// or beyond the corruption ceiling is rejected without attempting to read
// further, matching the defensive bound applied at deserialization time in
// the index.
func (fp *FP) UnmarshalBinary(data []byte) error {
	if len(data) < binaryHeaderLen+RLen+DomLen {
		return fmt.Errorf("fingerprint: binary blob too short: %d bytes", len(data))
	}

	off := 0
	songLen := int(int32(binary.LittleEndian.Uint32(data[off:])))
	off += 4
	bitRate := int(int32(binary.LittleEndian.Uint32(data[off:])))
	off += 4
	numErrors := int(int32(binary.LittleEndian.Uint32(data[off:])))
	off += 4
	cprintLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4

	if cprintLen >= corruptCprintLenCeiling {
		return &ErrCorruptCprintLen{Len: cprintLen}
	}

	var r [RLen]byte
	copy(r[:], data[off:off+RLen])
	off += RLen
	var dom [DomLen]byte
	copy(dom[:], data[off:off+DomLen])
	off += DomLen

	want := off + 4*cprintLen
	if len(data) < want {
		return fmt.Errorf("fingerprint: binary blob truncated: have %d bytes, want %d", len(data), want)
	}

	cprint := make([]int32, cprintLen)
	for i := 0; i < cprintLen; i++ {
		cprint[i] = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}

	fp.SongLen = songLen
	fp.BitRate = bitRate
	fp.NumErrors = numErrors
	fp.R = r
	fp.Dom = dom
	fp.Cprint = cprint
	return nil
}
