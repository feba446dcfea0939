// Package proto defines the satellite's message catalog: the hub
// protocol messages, each with its own small encode/decode pair built
// on top of the frame codec. The concrete payload layout is this
// repository's own; message identity travels as the frame's type tag.
package proto

import (
	"encoding/binary"
	"io"
	"math"
)

// MsgType tags a Frame's payload schema.
type MsgType uint64

const (
	MsgHelloRequest MsgType = iota + 1
	MsgHelloResponse
	MsgAuthRequest
	MsgAuthResponse
	MsgDisconnectRequest
	MsgDisconnectResponse
	MsgPingRequest
	MsgPingResponse
	MsgDeviceInfoRequest
	MsgDeviceInfoResponse
	MsgListEntitiesRequest
	MsgListEntitiesMediaPlayerResponse
	MsgListEntitiesSwitchResponse
	MsgListEntitiesDoneResponse
	MsgSwitchStateResponse
	MsgSwitchCommandRequest
	MsgMediaPlayerStateResponse
	MsgMediaPlayerCommandRequest
	MsgVoiceAssistantRequest
	MsgVoiceAssistantAudio
	MsgVoiceAssistantEventResponse
	MsgVoiceAssistantAnnounceRequest
	MsgVoiceAssistantAnnounceFinished
	MsgVoiceAssistantTimerEventResponse
	MsgVoiceAssistantConfigurationRequest
	MsgVoiceAssistantConfigurationResponse
	MsgVoiceAssistantSetConfiguration
)

type writer struct{ buf []byte }

func (w *writer) putByte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) putBool(b bool) {
	if b {
		w.putByte(1)
	} else {
		w.putByte(0)
	}
}

func (w *writer) putUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

func (w *writer) putStr(s string) {
	w.putUvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) putStrList(ss []string) {
	w.putUvarint(uint64(len(ss)))
	for _, s := range ss {
		w.putStr(s)
	}
}

func (w *writer) putBytes(b []byte) {
	w.putUvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) putF32(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *writer) putU32(v uint32) {
	w.putUvarint(uint64(v))
}

type reader struct {
	buf []byte
	off int
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) getByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) getBool() (bool, error) {
	b, err := r.getByte()
	return b != 0, err
}

func (r *reader) getUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.off += n
	return v, nil
}

func (r *reader) getU32() (uint32, error) {
	v, err := r.getUvarint()
	return uint32(v), err
}

func (r *reader) getStr() (string, error) {
	n, err := r.getUvarint()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *reader) getStrList() ([]string, error) {
	n, err := r.getUvarint()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := r.getStr()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (r *reader) getBytes() ([]byte, error) {
	n, err := r.getUvarint()
	if err != nil {
		return nil, err
	}
	if r.off+int(n) > len(r.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	copy(b, r.buf[r.off:r.off+int(n)])
	r.off += int(n)
	return b, nil
}

func (r *reader) getF32() (float32, error) {
	if r.off+4 > len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.off : r.off+4]))
	r.off += 4
	return v, nil
}
