// Package codec implements the satellite wire format: a preamble
// byte, a varuint payload length, a varuint message type, and the
// payload itself. Decoding is read-ahead tolerant — a short buffer
// reports "need more" without consuming any bytes, so the caller can
// feed it an arbitrary interleaving of partial TCP reads.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/voxsat/satellite/internal/domain"
)

// Preamble is the single fixed byte that opens every frame.
const Preamble = 0x00

// Frame is one decoded message: its type tag and opaque payload.
type Frame struct {
	Type    uint64
	Payload []byte
}

// Encode appends the wire encoding of (msgType, payload) to dst and
// returns the extended slice.
func Encode(dst []byte, msgType uint64, payload []byte) []byte {
	dst = append(dst, Preamble)
	dst = appendUvarint(dst, uint64(len(payload)))
	dst = appendUvarint(dst, msgType)
	dst = append(dst, payload...)
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Decode attempts to parse one Frame from the head of buf.
//
// It returns the decoded frame, the number of bytes consumed from
// buf, and ok=true on success. ok=false with n=0 means "need more
// bytes" — buf is an honest prefix of a valid frame and the caller
// should read more and retry without discarding buf. A malformed
// preamble is a fatal stream error, returned as err != nil; the
// caller must close the connection without attempting to resync.
func Decode(buf []byte) (frame Frame, n int, ok bool, err error) {
	if len(buf) < 1 {
		return Frame{}, 0, false, nil
	}
	if buf[0] != Preamble {
		return Frame{}, 0, false, fmt.Errorf("codec: bad preamble 0x%02x: %w", buf[0], domain.ErrMalformedFrame)
	}

	off := 1
	length, m, err := readUvarint(buf[off:])
	if err != nil {
		return Frame{}, 0, false, err
	}
	if m == 0 {
		return Frame{}, 0, false, nil
	}
	off += m

	msgType, m, err := readUvarint(buf[off:])
	if err != nil {
		return Frame{}, 0, false, err
	}
	if m == 0 {
		return Frame{}, 0, false, nil
	}
	off += m

	if uint64(len(buf)-off) < length {
		return Frame{}, 0, false, nil
	}

	payload := make([]byte, length)
	copy(payload, buf[off:off+int(length)])
	off += int(length)

	return Frame{Type: msgType, Payload: payload}, off, true, nil
}

// readUvarint wraps encoding/binary.Uvarint, translating its "buffer
// too small" signal (n == 0) into the codec's need-more convention and
// its "value overflows 64 bits" signal (n < 0) into a fatal malformed
// error.
func readUvarint(buf []byte) (v uint64, n int, err error) {
	v, n = binary.Uvarint(buf)
	if n < 0 {
		return 0, 0, fmt.Errorf("codec: varint overflow: %w", domain.ErrMalformedFrame)
	}
	return v, n, nil
}
