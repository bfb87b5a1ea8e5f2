package splitter

import (
	"encoding/binary"
	"math"
)

// EncodeHeader writes the header for a frame of the given type and payload
// length into b, which must hold at least HeaderSize bytes.
func EncodeHeader(b []byte, typ, length uint32) {
	binary.LittleEndian.PutUint32(b[0:4], typ)
	binary.LittleEndian.PutUint32(b[4:8], length)
}

// AppendFrame appends the wire encoding of (typ, payload) to dst.
func AppendFrame(dst []byte, typ uint32, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return dst, ErrPayloadTooLarge
	}
	var hdr [HeaderSize]byte
	EncodeHeader(hdr[:], typ, uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}
