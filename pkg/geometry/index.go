package geometry

import (
	"encoding/binary"
	"fmt"
)

// IndexSize returns the byte width of an index.
func IndexSize(large bool) int {
	if large {
		return 4
	}
	return 2
}

// EncodeIndices packs indices as little endian 2 or 4 byte values.
// Small indices above 65535 panic.
func EncodeIndices(indices []uint32, large bool) []byte {
	size := IndexSize(large)
	buf := make([]byte, len(indices)*size)
	for i, idx := range indices {
		if large {
			binary.LittleEndian.PutUint32(buf[i*4:], idx)
			continue
		}
		if idx > 0xFFFF {
			panic(fmt.Sprintf("geometry: index %d does not fit in 16 bits", idx))
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(idx))
	}
	return buf
}

// DecodeIndices unpacks an index buffer.
func DecodeIndices(data []byte, large bool) []uint32 {
	size := IndexSize(large)
	if len(data)%size != 0 {
		panic(fmt.Sprintf("geometry: %d bytes is not a multiple of index size %d", len(data), size))
	}
	indices := make([]uint32, len(data)/size)
	for i := range indices {
		if large {
			indices[i] = binary.LittleEndian.Uint32(data[i*4:])
		} else {
			indices[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	}
	return indices
}

// AdjustIndicesBase adds base to every index stored in data, in place.
// A rebased index that no longer fits the index width panics before data
// is modified.
func AdjustIndicesBase(data []byte, large bool, base uint32) {
	if base == 0 {
		return
	}
	size := IndexSize(large)
	limit := uint64(0xFFFF)
	if large {
		limit = 0xFFFFFFFF
	}
	for off := 0; off+size <= len(data); off += size {
		if v := uint64(readIndex(data[off:], large)) + uint64(base); v > limit {
			panic(fmt.Sprintf("geometry: rebased index %d does not fit in %d bits", v, size*8))
		}
	}
	for off := 0; off+size <= len(data); off += size {
		if large {
			binary.LittleEndian.PutUint32(data[off:], binary.LittleEndian.Uint32(data[off:])+base)
		} else {
			binary.LittleEndian.PutUint16(data[off:], binary.LittleEndian.Uint16(data[off:])+uint16(base))
		}
	}
}

func readIndex(b []byte, large bool) uint32 {
	if large {
		return binary.LittleEndian.Uint32(b)
	}
	return uint32(binary.LittleEndian.Uint16(b))
}
