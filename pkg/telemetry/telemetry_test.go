package telemetry

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// encodeFrame builds one wire frame: little-endian header plus payload.
func encodeFrame(t *testing.T, s Sample, image []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], uint32(len(image)))
	buf.Write(le[:])
	for _, f := range []float32{s.AX, s.AY, s.AZ, s.GX, s.GY, s.GZ} {
		binary.LittleEndian.PutUint32(le[:], math.Float32bits(f))
		buf.Write(le[:])
	}
	buf.Write(image)
	return buf.Bytes()
}

func TestEmptyFrameRoundTrip(t *testing.T) {
	wire := encodeFrame(t, Sample{}, nil)

	r := NewReader(bytes.NewReader(wire), testLogger())
	f, ok := r.Next()
	if !ok {
		t.Fatal("Next returned no frame for a complete empty frame")
	}
	if f.Seq != 1 {
		t.Errorf("Seq = %d, want 1", f.Seq)
	}
	if len(f.Image) != 0 {
		t.Errorf("Image length = %d, want 0", len(f.Image))
	}
	if f.Sample != (Sample{}) {
		t.Errorf("Sample = %+v, want zero sample", f.Sample)
	}

	if _, ok := r.Next(); ok {
		t.Error("Next produced a frame past end of stream")
	}
}

func TestSequenceNumbering(t *testing.T) {
	s := Sample{AX: 0.5, AY: -1.25, AZ: 9.81, GX: 0.1, GY: 0.2, GZ: -0.3}
	var wire []byte
	wire = append(wire, encodeFrame(t, s, []byte("jpeg-ish"))...)
	wire = append(wire, encodeFrame(t, s, nil)...)
	wire = append(wire, encodeFrame(t, s, bytes.Repeat([]byte{0xab}, 1024))...)

	r := NewReader(bytes.NewReader(wire), testLogger())
	for want := uint64(1); want <= 3; want++ {
		f, ok := r.Next()
		if !ok {
			t.Fatalf("Next ended early at frame %d", want)
		}
		if f.Seq != want {
			t.Errorf("Seq = %d, want %d", f.Seq, want)
		}
		if f.Sample != s {
			t.Errorf("frame %d Sample = %+v, want %+v", want, f.Sample, s)
		}
	}
	if got := r.Count(); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}

func TestTruncatedHeaderEndsSequenceCleanly(t *testing.T) {
	wire := encodeFrame(t, Sample{}, nil)[:10]

	r := NewReader(bytes.NewReader(wire), testLogger())
	if _, ok := r.Next(); ok {
		t.Error("Next produced a frame from a 10-byte header fragment")
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestTruncatedPayloadEndsSequence(t *testing.T) {
	full := encodeFrame(t, Sample{GZ: 1}, bytes.Repeat([]byte{0x11}, 100))
	wire := full[:len(full)-60] // header intact, payload short

	r := NewReader(bytes.NewReader(wire), testLogger())
	if _, ok := r.Next(); ok {
		t.Error("Next produced a frame despite a short payload")
	}
	// No resynchronization: the sequence is over.
	if _, ok := r.Next(); ok {
		t.Error("Next resumed after a corrupt frame")
	}
}

func TestFramesIterator(t *testing.T) {
	var wire []byte
	for i := 0; i < 5; i++ {
		wire = append(wire, encodeFrame(t, Sample{AX: float32(i)}, []byte{byte(i)})...)
	}
	// Trailing garbage shorter than a header ends the loop without fuss.
	wire = append(wire, 0xde, 0xad)

	r := NewReader(bytes.NewReader(wire), testLogger())
	var seen []uint64
	for f := range r.Frames() {
		seen = append(seen, f.Seq)
	}
	if len(seen) != 5 {
		t.Fatalf("iterated %d frames, want 5", len(seen))
	}
	for i, seq := range seen {
		if seq != uint64(i+1) {
			t.Errorf("frame %d has Seq %d", i, seq)
		}
	}
}
