package recorder

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Adam-Vandervorst/pithon/pkg/telemetry"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.BeginSession(ctx, "192.168.1.7:51234")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != id {
		t.Fatalf("Sessions = %+v, want one session %s", sessions, id)
	}
	if sessions[0].RemoteAddr != "192.168.1.7:51234" {
		t.Errorf("RemoteAddr = %q", sessions[0].RemoteAddr)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.BeginSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	frame := telemetry.Frame{
		Seq:   3,
		Image: make([]byte, 1024),
		Sample: telemetry.Sample{
			AX: 0.5, AY: -0.25, AZ: 9.81,
			GX: 0.1, GY: 0.2, GZ: -0.3,
		},
	}
	if err := s.StoreFrame(ctx, id, frame); err != nil {
		t.Fatal(err)
	}

	frames, err := s.Frames(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	got := frames[0]
	if got.Seq != 3 || got.ImageBytes != 1024 {
		t.Errorf("Seq=%d ImageBytes=%d, want 3 and 1024", got.Seq, got.ImageBytes)
	}
	if got.Sample != frame.Sample {
		t.Errorf("Sample = %+v, want %+v", got.Sample, frame.Sample)
	}
}

func TestCommandsKeepSendOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.BeginSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	sent := []string{"MS1F:0", "MS1S:-30", "sd"}
	for _, msg := range sent {
		if err := s.StoreCommand(ctx, id, msg); err != nil {
			t.Fatal(err)
		}
	}

	commands, err := s.Commands(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(commands) != len(sent) {
		t.Fatalf("got %d commands, want %d", len(commands), len(sent))
	}
	for i, cr := range commands {
		if cr.Message != sent[i] {
			t.Errorf("command %d = %q, want %q", i, cr.Message, sent[i])
		}
	}
}

type nopSender struct{ msgs []string }

func (n *nopSender) Send(msg string) { n.msgs = append(n.msgs, msg) }

func TestTapForwardsAndRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.BeginSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	next := &nopSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tap := NewTap(next, s, id, logger)

	tap.Send("SN1V:10")
	tap.Send("SN1H:0")

	if len(next.msgs) != 2 || next.msgs[0] != "SN1V:10" {
		t.Errorf("forwarded = %v", next.msgs)
	}
	commands, err := s.Commands(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(commands) != 2 || commands[1].Message != "SN1H:0" {
		t.Errorf("recorded = %+v", commands)
	}
}
