package actuator

import (
	"fmt"
	"log/slog"
	"sync"
)

// Sender carries serialized commands to the robot. Implementations must
// tolerate a dead connection without failing the caller; link.Conn does.
type Sender interface {
	Send(msg string)
}

// Dispatcher validates and applies channel values and emits the resulting
// wire commands. Its mutex serializes every store-and-send pair, so an
// auto-repeat timer and a direct operator event cannot interleave their
// commands and the complement-clear always reaches the wire before the
// value it protects.
type Dispatcher struct {
	mu     sync.Mutex
	reg    *Registry
	sender Sender
	logger *slog.Logger
}

// NewDispatcher wires a registry to the robot link.
func NewDispatcher(reg *Registry, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, sender: sender, logger: logger}
}

// Clip clamps raw into the channel's bounds. Out-of-range input is
// silently corrected, never rejected: the operator UI sends raw unclamped
// deltas and expects the dispatcher to absorb them. In-range values pass
// through unchanged.
func (d *Dispatcher) Clip(id string, raw int) (int, error) {
	ch, ok := d.reg.Get(id)
	if !ok {
		return 0, fmt.Errorf("unknown channel %q", id)
	}
	return clip(raw, ch.Lower, ch.Upper), nil
}

func clip(v, lower, upper int) int {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

// Set applies raw to the channel: the Forward/Sideways complement is
// zeroed first (same operation, complement command sent before the value
// command), then the clipped value is stored and sent.
func (d *Dispatcher) Set(id string, raw int) (int, error) {
	ch, ok := d.reg.Get(id)
	if !ok {
		return 0, fmt.Errorf("unknown channel %q", id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.clearComplement(id)

	v := clip(raw, ch.Lower, ch.Upper)
	d.reg.setCurrent(id, v)
	d.emit(Command{Channel: id, Value: v})
	return v, nil
}

// ForceSet stores and sends v without clipping and without touching the
// complement. Gestures that bypass validation (turn, ramp, resets) use
// this path.
func (d *Dispatcher) ForceSet(id string, v int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.reg.setCurrent(id, v) {
		return fmt.Errorf("unknown channel %q", id)
	}
	d.emit(Command{Channel: id, Value: v})
	return nil
}

// ClearComplement zeroes the channel's Forward/Sideways counterpart and
// emits its zero-command. A channel without a counterpart (servo
// Vertical/Horizontal) is silently skipped: at most one of a Motor
// segment's F/S pair may ever hold a non-zero value, and servos are not
// part of any pair.
func (d *Dispatcher) ClearComplement(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearComplement(id)
}

func (d *Dispatcher) clearComplement(id string) {
	comp := ComplementID(id)
	if comp == "" {
		return
	}
	if !d.reg.setCurrent(comp, 0) {
		return
	}
	d.emit(Command{Channel: comp, Value: 0})
}

func (d *Dispatcher) emit(cmd Command) {
	d.logger.Debug("dispatch", "channel", cmd.Channel, "value", cmd.Value)
	d.sender.Send(cmd.String())
}
