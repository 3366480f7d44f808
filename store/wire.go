package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/tanski-labs/fpgist/codec"
	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/persistence"
)

// pageBlobMagic identifies a compressed, checksummed page blob (ASCII: "FPPB").
const pageBlobMagic = 0x46505042

// pageBlobHeaderLen is the fixed-size header preceding the compressed payload:
// magic(4) + checksum(4) + uncompressed length(4) + compression type(1).
const pageBlobHeaderLen = 13

// compressionType picks the codec used to frame a page blob, mirroring the
// fast-for-hot/dense-for-cold split of a tiered compression scheme: leaf
// pages churn on every insert and split, so they favor lz4's speed, while
// internal pages are written far less often and can afford zstd's ratio.
type compressionType uint8

const (
	compressionZSTD compressionType = 0
	compressionLZ4  compressionType = 1
)

func compressionFor(page *gist.Page) compressionType {
	if page.IsLeaf() {
		return compressionLZ4
	}
	return compressionZSTD
}

// encodePage serializes page with c, compresses it, and frames it behind a
// checksummed header.
func encodePage(page *gist.Page, c codec.Codec) ([]byte, error) {
	raw, err := c.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("store: marshal page %d: %w", page.ID, err)
	}

	ctype := compressionFor(page)
	compressed, err := compressBlock(ctype, raw)
	if err != nil {
		return nil, fmt.Errorf("store: compress page %d: %w", page.ID, err)
	}

	buf := make([]byte, pageBlobHeaderLen+len(compressed))
	binary.LittleEndian.PutUint32(buf[0:], pageBlobMagic)
	binary.LittleEndian.PutUint32(buf[4:], persistence.CalculateChecksum(compressed))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(raw)))
	buf[12] = byte(ctype)
	copy(buf[pageBlobHeaderLen:], compressed)
	return buf, nil
}

// decodePage reverses encodePage, verifying the checksum before decompressing.
func decodePage(blob []byte, c codec.Codec) (*gist.Page, error) {
	if len(blob) < pageBlobHeaderLen {
		return nil, fmt.Errorf("store: page blob too short: %d bytes", len(blob))
	}

	magic := binary.LittleEndian.Uint32(blob[0:])
	if magic != pageBlobMagic {
		return nil, fmt.Errorf("store: invalid page blob magic 0x%08x", magic)
	}
	wantChecksum := binary.LittleEndian.Uint32(blob[4:])
	rawLen := binary.LittleEndian.Uint32(blob[8:])
	ctype := compressionType(blob[12])

	compressed := blob[pageBlobHeaderLen:]
	if got := persistence.CalculateChecksum(compressed); got != wantChecksum {
		return nil, &persistence.ChecksumMismatchError{Expected: wantChecksum, Actual: got}
	}

	raw, err := decompressBlock(ctype, compressed, int(rawLen))
	if err != nil {
		return nil, fmt.Errorf("store: decompress page: %w", err)
	}

	var page gist.Page
	if err := c.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("store: unmarshal page: %w", err)
	}
	return &page, nil
}

func compressBlock(ctype compressionType, raw []byte) ([]byte, error) {
	switch ctype {
	case compressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	}
}

func decompressBlock(ctype compressionType, compressed []byte, rawLen int) ([]byte, error) {
	switch ctype {
	case compressionLZ4:
		r := lz4.NewReader(bytes.NewReader(compressed))
		return io.ReadAll(r)
	default:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(compressed, make([]byte, 0, rawLen))
	}
}
