// Package gesture builds composite robot motions on top of the actuator
// dispatcher: broadcast forward drive, coordinated turns, momentum-ramped
// strafing and the two safety resets.
package gesture

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Adam-Vandervorst/pithon/pkg/actuator"
)

// RepeatInterval is the auto-repeat period while a ramp control is held.
const RepeatInterval = 20 * time.Millisecond

// momentumStep is added per ramp invocation; momentumExponent shapes the
// ramp so a held control accelerates gently at first.
const (
	momentumStep     = 0.01
	momentumExponent = 1.6
)

const (
	sideLeft = iota
	sideRight
)

// Display receives operator-facing value updates: per-channel readouts
// plus the Forwards and Turn indicator controls. The dashboard implements
// it; a NopDisplay serves headless runs and tests.
//
// Note that what the display shows is not always what went on the wire:
// ResetToZero commands motors to zero while showing their safe values.
type Display interface {
	ShowChannel(id string, value int)
	ShowForwards(value int)
	ShowTurn(value int)
}

// NopDisplay discards all display updates.
type NopDisplay struct{}

func (NopDisplay) ShowChannel(string, int) {}
func (NopDisplay) ShowForwards(int)        {}
func (NopDisplay) ShowTurn(int)            {}

// Controller executes gestures. Its mutex serializes whole gestures, so
// an auto-repeat tick and a direct operator event cannot interleave their
// command sequences.
type Controller struct {
	mu       sync.Mutex
	disp     *actuator.Dispatcher
	reg      *actuator.Registry
	display  Display
	logger   *slog.Logger
	momentum float64
	held     [2]bool
	stops    [2]chan struct{}
}

// NewController wires gestures to the dispatcher and display.
func NewController(disp *actuator.Dispatcher, reg *actuator.Registry, display Display, logger *slog.Logger) *Controller {
	return &Controller{
		disp:    disp,
		reg:     reg,
		display: display,
		logger:  logger,
	}
}

// SetSingle applies one channel value through the normal validated path
// and mirrors the result (and any cleared complement) on the display.
func (c *Controller) SetSingle(id string, raw int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setSingle(id, raw)
}

func (c *Controller) setSingle(id string, raw int) error {
	v, err := c.disp.Set(id, raw)
	if err != nil {
		return err
	}
	if comp := actuator.ComplementID(id); comp != "" {
		if _, ok := c.reg.Get(comp); ok {
			c.display.ShowChannel(comp, 0)
		}
	}
	c.display.ShowChannel(id, v)
	return nil
}

// SetForwardsAll drives all three segment Forward motors with the same
// raw value, clipped per channel, clearing each Sideways complement.
func (c *Controller) SetForwardsAll(raw int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.reg.IDs(actuator.Motor, actuator.Forwards) {
		if err := c.setSingle(id, raw); err != nil {
			c.logger.Warn("forwards broadcast failed", "channel", id, "error", err)
		}
	}
}

// SetTurn points both joint-Horizontal servos at raw. No bounds clipping
// is applied on this path and no complement exists for servo channels;
// the raw operator value goes straight to the wire.
func (c *Controller) SetTurn(raw int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range []string{"SJ1H", "SJ2H"} {
		if err := c.disp.ForceSet(id, raw); err != nil {
			c.logger.Warn("turn failed", "channel", id, "error", err)
			continue
		}
		c.display.ShowChannel(id, raw)
	}
}

// RampLeft performs one leftward strafe step: momentum accumulates and
// each Sideways motor is driven toward its upper bound by
// floor(momentum^1.6 · upper). Invoked repeatedly while the control is
// held (see PressLeft).
func (c *Controller) RampLeft() {
	c.ramp(func(ch actuator.Channel) int { return ch.Upper })
}

// RampRight is the mirror step toward each Sideways motor's lower bound.
func (c *Controller) RampRight() {
	c.ramp(func(ch actuator.Channel) int { return ch.Lower })
}

func (c *Controller) ramp(bound func(actuator.Channel) int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rampLocked(bound)
}

// rampTick is the auto-repeat variant: a tick that raced with the
// release must not fire after the reset.
func (c *Controller) rampTick(side int, bound func(actuator.Channel) int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held[side] {
		return
	}
	c.rampLocked(bound)
}

func (c *Controller) rampLocked(bound func(actuator.Channel) int) {
	c.momentum += momentumStep
	c.display.ShowForwards(0)

	for _, id := range c.reg.IDs(actuator.Motor, actuator.Sideways) {
		ch, ok := c.reg.Get(id)
		if !ok {
			continue
		}
		value := int(math.Floor(math.Pow(c.momentum, momentumExponent) * float64(bound(ch))))

		c.disp.ClearComplement(id)
		if comp := actuator.ComplementID(id); comp != "" {
			c.display.ShowChannel(comp, 0)
		}
		if err := c.disp.ForceSet(id, value); err != nil {
			c.logger.Warn("ramp failed", "channel", id, "error", err)
			continue
		}
		c.display.ShowChannel(id, value)
	}
}

// SafeValue drives every servo to its configured safe value and zeroes
// the Turn indicator. Safe values are defined within bounds by
// construction, so no clipping applies. Motor channels are untouched.
func (c *Controller) SafeValue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.ShowTurn(0)
	for _, id := range c.reg.IDs(actuator.Servo, "") {
		ch, ok := c.reg.Get(id)
		if !ok {
			continue
		}
		if err := c.disp.ForceSet(id, ch.Safe); err != nil {
			c.logger.Warn("safe reset failed", "channel", id, "error", err)
			continue
		}
		c.display.ShowChannel(id, ch.Safe)
	}
}

// ResetToZero commands every motor to zero and clears the accumulated
// momentum. While either ramp control is still held this is a no-op, so
// the release handler of one side cannot kill an ongoing ramp on the
// other. The display shows each motor's safe value even though the wire
// carries 0; operators read "resting position", the robot gets "stop".
func (c *Controller) ResetToZero() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held[sideLeft] || c.held[sideRight] {
		return
	}
	c.momentum = 0

	c.display.ShowForwards(0)
	for _, id := range c.reg.IDs(actuator.Motor, "") {
		ch, ok := c.reg.Get(id)
		if !ok {
			continue
		}
		if err := c.disp.ForceSet(id, 0); err != nil {
			c.logger.Warn("zero reset failed", "channel", id, "error", err)
			continue
		}
		c.display.ShowChannel(id, ch.Safe)
	}
}

// Momentum returns the accumulated ramp momentum.
func (c *Controller) Momentum() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.momentum
}

// PressLeft starts the held-control loop for a leftward strafe: one ramp
// step immediately, then one per RepeatInterval until ReleaseLeft.
func (c *Controller) PressLeft() {
	c.press(sideLeft, func(ch actuator.Channel) int { return ch.Upper })
}

// PressRight starts the held-control loop for a rightward strafe.
func (c *Controller) PressRight() {
	c.press(sideRight, func(ch actuator.Channel) int { return ch.Lower })
}

// ReleaseLeft stops the left repeat loop and applies ResetToZero.
func (c *Controller) ReleaseLeft() { c.release(sideLeft) }

// ReleaseRight stops the right repeat loop and applies ResetToZero.
func (c *Controller) ReleaseRight() { c.release(sideRight) }

func (c *Controller) press(side int, bound func(actuator.Channel) int) {
	c.mu.Lock()
	if c.held[side] {
		c.mu.Unlock()
		return
	}
	c.held[side] = true
	stop := make(chan struct{})
	c.stops[side] = stop
	c.mu.Unlock()

	c.ramp(bound)
	go func() {
		ticker := time.NewTicker(RepeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.rampTick(side, bound)
			}
		}
	}()
}

func (c *Controller) release(side int) {
	c.mu.Lock()
	if !c.held[side] {
		c.mu.Unlock()
		return
	}
	c.held[side] = false
	close(c.stops[side])
	c.stops[side] = nil
	c.mu.Unlock()

	c.ResetToZero()
}
