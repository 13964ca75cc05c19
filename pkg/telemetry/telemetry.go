// Package telemetry extracts frames from the robot's inbound byte stream.
//
// Each frame is a 28-byte little-endian header (uint32 image length plus
// six float32 accelerometer/gyroscope values) followed by an opaque image
// payload of the declared length. The payload is delimited here but never
// decoded; that is the video consumer's problem.
package telemetry

import (
	"encoding/binary"
	"io"
	"iter"
	"log/slog"
	"math"
)

// headerSize is uint32 imageLen + 6 * float32.
const headerSize = 28

// Sample is one accelerometer/gyroscope reading. Angular rates are in
// radians per second.
type Sample struct {
	AX, AY, AZ float32
	GX, GY, GZ float32
}

// Frame is one telemetry unit. Immutable once produced.
type Frame struct {
	Seq    uint64 // 1-based, increments per parsed frame
	Image  []byte // opaque payload, may be empty
	Sample Sample
}

// Reader produces a lazy, finite, non-restartable sequence of frames over
// one connection's lifetime. It is not safe for concurrent use; a single
// consumer loop drives it.
type Reader struct {
	r      io.Reader
	seq    uint64
	bytes  uint64
	logger *slog.Logger
}

// NewReader wraps the connection's inbound stream.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	return &Reader{r: r, logger: logger}
}

// Next blocks until a full frame is available and returns it. A false
// result means the sequence has ended: either the stream closed between
// frames (normal termination) or a frame arrived truncated (corrupt, a
// misaligned header cannot be recovered, so no resynchronization is
// attempted). End of sequence is not an error.
func (r *Reader) Next() (Frame, bool) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		// Includes a half-read header on a mid-header close.
		r.logger.Debug("telemetry stream ended", "frames", r.seq, "error", err)
		return Frame{}, false
	}

	imageLen := binary.LittleEndian.Uint32(hdr[0:4])
	var s Sample
	s.AX = math.Float32frombits(binary.LittleEndian.Uint32(hdr[4:8]))
	s.AY = math.Float32frombits(binary.LittleEndian.Uint32(hdr[8:12]))
	s.AZ = math.Float32frombits(binary.LittleEndian.Uint32(hdr[12:16]))
	s.GX = math.Float32frombits(binary.LittleEndian.Uint32(hdr[16:20]))
	s.GY = math.Float32frombits(binary.LittleEndian.Uint32(hdr[20:24]))
	s.GZ = math.Float32frombits(binary.LittleEndian.Uint32(hdr[24:28]))

	image := make([]byte, imageLen)
	if _, err := io.ReadFull(r.r, image); err != nil {
		r.logger.Warn("corrupt frame, stopping telemetry",
			"seq", r.seq+1, "declared", imageLen, "error", err)
		return Frame{}, false
	}

	r.seq++
	r.bytes += headerSize + uint64(imageLen)
	return Frame{Seq: r.seq, Image: image, Sample: s}, true
}

// Frames exposes the remaining frames as a range iterator. Termination is
// the loop simply ending; there is no error to check.
func (r *Reader) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for {
			f, ok := r.Next()
			if !ok {
				return
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Count returns the number of frames produced so far.
func (r *Reader) Count() uint64 {
	return r.seq
}

// Bytes returns the total payload and header bytes consumed so far.
func (r *Reader) Bytes() uint64 {
	return r.bytes
}
