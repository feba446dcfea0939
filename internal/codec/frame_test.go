package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/voxsat/satellite/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		msgType uint64
		payload []byte
	}{
		{0, nil},
		{1, []byte("hello")},
		{300, bytes.Repeat([]byte{0xAB}, 300)},
		{1 << 20, []byte{1, 2, 3}},
	}

	for _, c := range cases {
		buf := Encode(nil, c.msgType, c.payload)
		frame, n, ok, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if !ok {
			t.Fatalf("expected ok decode")
		}
		if n != len(buf) {
			t.Fatalf("expected to consume all %d bytes, consumed %d", len(buf), n)
		}
		if frame.Type != c.msgType {
			t.Fatalf("type mismatch: got %d want %d", frame.Type, c.msgType)
		}
		if !bytes.Equal(frame.Payload, c.payload) && !(len(frame.Payload) == 0 && len(c.payload) == 0) {
			t.Fatalf("payload mismatch: got %v want %v", frame.Payload, c.payload)
		}
	}
}

func TestDecodeNeedsMoreOnPrefix(t *testing.T) {
	buf := Encode(nil, 7, []byte("payload"))
	for i := 0; i < len(buf); i++ {
		_, n, ok, err := Decode(buf[:i])
		if err != nil {
			t.Fatalf("unexpected error on prefix len %d: %v", i, err)
		}
		if ok {
			t.Fatalf("expected need-more on prefix len %d, got ok", i)
		}
		if n != 0 {
			t.Fatalf("expected no bytes consumed on need-more, got %d", n)
		}
	}
}

func TestDecodeMalformedPreamble(t *testing.T) {
	_, _, ok, err := Decode([]byte{0x01, 0x00, 0x00})
	if ok {
		t.Fatal("expected decode failure on bad preamble")
	}
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestReaderHandlesFragmentedWrites(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 300)
	full := Encode(nil, 9, payload)

	next := Encode(nil, 1, []byte("next"))

	// Split the frame across three writes, with the trailing write
	// also carrying the next frame's first byte.
	part1 := full[:1]
	part2 := full[1:300]
	part3 := append(full[300:], next[0])

	var r Reader
	var got []Frame

	for _, part := range [][]byte{part1, part2, part3} {
		frames, err := r.Feed(part)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		got = append(got, frames...)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly one decoded frame from the fragmented write, got %d", len(got))
	}
	if got[0].Type != 9 || !bytes.Equal(got[0].Payload, payload) {
		t.Fatalf("decoded frame mismatch")
	}

	// Feed the remainder of the next frame; it must start cleanly on
	// the preamble byte already buffered from part3.
	frames, err := r.Feed(next[1:])
	if err != nil {
		t.Fatalf("feed remainder: %v", err)
	}
	if len(frames) != 1 || frames[0].Type != 1 || string(frames[0].Payload) != "next" {
		t.Fatalf("expected the next frame to decode cleanly, got %+v", frames)
	}
}
