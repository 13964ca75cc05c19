package actuator

import (
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSender records every line that would go to the robot.
type mockSender struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockSender) Send(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, msg)
}

func (m *mockSender) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

func newTestDispatcher() (*Dispatcher, *Registry, *mockSender) {
	reg := NewRegistry()
	sender := &mockSender{}
	return NewDispatcher(reg, sender, testLogger()), reg, sender
}

func TestRegistryHasFourteenChannels(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Snapshot()
	if len(snap) != 14 {
		t.Fatalf("registry has %d channels, want 14", len(snap))
	}

	// Startup values: neck verticals rest at 10, everything else at 0.
	for _, ch := range snap {
		want := 0
		if ch.ID == "SN1V" || ch.ID == "SN2V" {
			want = 10
		}
		if ch.Current != want {
			t.Errorf("%s starts at %d, want %d", ch.ID, ch.Current, want)
		}
		if ch.Lower >= ch.Upper {
			t.Errorf("%s has inverted bounds (%d, %d)", ch.ID, ch.Lower, ch.Upper)
		}
	}
}

func TestClipStaysWithinBounds(t *testing.T) {
	d, reg, _ := newTestDispatcher()

	for _, ch := range reg.Snapshot() {
		for _, raw := range []int{-100000, ch.Lower - 1, ch.Lower, 0, ch.Upper, ch.Upper + 1, 100000} {
			got, err := d.Clip(ch.ID, raw)
			if err != nil {
				t.Fatalf("Clip(%s, %d): %v", ch.ID, raw, err)
			}
			if got < ch.Lower || got > ch.Upper {
				t.Errorf("Clip(%s, %d) = %d, outside [%d, %d]", ch.ID, raw, got, ch.Lower, ch.Upper)
			}
			if raw >= ch.Lower && raw <= ch.Upper && got != raw {
				t.Errorf("Clip(%s, %d) = %d, in-range value must pass through", ch.ID, raw, got)
			}
		}
	}
}

func TestClipNeckHorizontal(t *testing.T) {
	d, _, _ := newTestDispatcher()

	if got, _ := d.Clip("SN1H", 9999); got != 65 {
		t.Errorf("Clip(SN1H, 9999) = %d, want 65", got)
	}
	if got, _ := d.Clip("SN1H", -9999); got != -65 {
		t.Errorf("Clip(SN1H, -9999) = %d, want -65", got)
	}
}

func TestForwardSidewaysExclusion(t *testing.T) {
	for _, order := range []struct {
		name          string
		first, second string
	}{
		{"forward then sideways", "MS1F", "MS1S"},
		{"sideways then forward", "MS1S", "MS1F"},
	} {
		t.Run(order.name, func(t *testing.T) {
			d, reg, _ := newTestDispatcher()

			if _, err := d.Set(order.first, 40); err != nil {
				t.Fatal(err)
			}
			if _, err := d.Set(order.second, 55); err != nil {
				t.Fatal(err)
			}

			first, _ := reg.Get(order.first)
			second, _ := reg.Get(order.second)
			if first.Current != 0 {
				t.Errorf("%s.Current = %d, want 0 after complement set", order.first, first.Current)
			}
			if second.Current != 55 {
				t.Errorf("%s.Current = %d, want 55", order.second, second.Current)
			}
		})
	}
}

func TestComplementClearPrecedesValueOnWire(t *testing.T) {
	d, _, sender := newTestDispatcher()

	if _, err := d.Set("MS2S", -30); err != nil {
		t.Fatal(err)
	}

	want := []string{"MS2F:0", "MS2S:-30"}
	got := sender.sent()
	if len(got) != len(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServoChannelsHaveNoComplement(t *testing.T) {
	d, reg, sender := newTestDispatcher()

	// Vertical/Horizontal suffixes have no F/S counterpart; nothing is
	// cleared and no extra command goes out.
	if _, err := d.Set("SN1H", 30); err != nil {
		t.Fatal(err)
	}

	got := sender.sent()
	if len(got) != 1 || got[0] != "SN1H:30" {
		t.Errorf("sent %v, want [SN1H:30]", got)
	}
	ch, _ := reg.Get("SN1H")
	if ch.Current != 30 {
		t.Errorf("SN1H.Current = %d, want 30", ch.Current)
	}
}

func TestSetUnknownChannel(t *testing.T) {
	d, _, sender := newTestDispatcher()

	if _, err := d.Set("XX9Q", 10); err == nil {
		t.Error("Set accepted an unknown channel")
	}
	if len(sender.sent()) != 0 {
		t.Errorf("unknown channel emitted commands: %v", sender.sent())
	}
}

func TestForceSetBypassesClipping(t *testing.T) {
	d, reg, sender := newTestDispatcher()

	if err := d.ForceSet("SJ1H", 200); err != nil {
		t.Fatal(err)
	}
	ch, _ := reg.Get("SJ1H")
	if ch.Current != 200 {
		t.Errorf("SJ1H.Current = %d, want 200 (unclipped)", ch.Current)
	}
	got := sender.sent()
	if len(got) != 1 || got[0] != "SJ1H:200" {
		t.Errorf("sent %v, want [SJ1H:200]", got)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Channel: "SN1V", Value: 10}, "SN1V:10"},
		{Command{Channel: "MS3S", Value: -90}, "MS3S:-90"},
		{Command{Channel: "MS1F", Value: 0}, "MS1F:0"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command%+v.String() = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestIDsFilters(t *testing.T) {
	reg := NewRegistry()

	forwards := reg.IDs(Motor, Forwards)
	wantF := []string{"MS1F", "MS2F", "MS3F"}
	if len(forwards) != len(wantF) {
		t.Fatalf("Motor/Forwards ids = %v, want %v", forwards, wantF)
	}
	for i := range wantF {
		if forwards[i] != wantF[i] {
			t.Errorf("Motor/Forwards[%d] = %s, want %s", i, forwards[i], wantF[i])
		}
	}

	servos := reg.IDs(Servo, "")
	if len(servos) != 8 {
		t.Errorf("found %d servo channels, want 8", len(servos))
	}
	motors := reg.IDs(Motor, "")
	if len(motors) != 6 {
		t.Errorf("found %d motor channels, want 6", len(motors))
	}
}
