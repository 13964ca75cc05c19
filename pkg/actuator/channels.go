// Package actuator models the robot's 14 servo and motor channels and
// turns value changes into bounds-checked wire commands.
package actuator

import "strconv"

// Category distinguishes position servos from drive motors.
type Category string

const (
	Servo Category = "servo"
	Motor Category = "motor"
)

// Axis is the role a channel plays on its segment.
type Axis string

const (
	Vertical   Axis = "vertical"
	Horizontal Axis = "horizontal"
	Forwards   Axis = "forwards"
	Sideways   Axis = "sideways"
)

// Channel is one independently addressable actuator axis.
type Channel struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Segment  string   `json:"segment"`
	Axis     Axis     `json:"axis"`
	Current  int      `json:"current"`
	Safe     int      `json:"safe"`
	Lower    int      `json:"lower"`
	Upper    int      `json:"upper"`
}

// Command is a single channel assignment on its way to the wire.
// Constructed, serialized, sent, discarded.
type Command struct {
	Channel string
	Value   int
}

// String renders the outbound wire form, without the line terminator.
func (c Command) String() string {
	return c.Channel + ":" + strconv.Itoa(c.Value)
}

// channelTable is the fixed actuator configuration: identity, startup
// value, safe value and bounds per channel. It is data, not derived; the
// robot firmware carries the matching table.
func channelTable() []Channel {
	return []Channel{
		{ID: "SN1V", Category: Servo, Segment: "Neck1", Axis: Vertical, Current: 10, Safe: 10, Lower: -40, Upper: 60},
		{ID: "SN1H", Category: Servo, Segment: "Neck1", Axis: Horizontal, Current: 0, Safe: 0, Lower: -65, Upper: 65},
		{ID: "SN2V", Category: Servo, Segment: "Neck2", Axis: Vertical, Current: 10, Safe: 10, Lower: -40, Upper: 60},
		{ID: "SN2H", Category: Servo, Segment: "Neck2", Axis: Horizontal, Current: 0, Safe: 0, Lower: -65, Upper: 65},
		{ID: "MS1F", Category: Motor, Segment: "Segment1", Axis: Forwards, Current: 0, Safe: 0, Lower: -80, Upper: 95},
		{ID: "MS1S", Category: Motor, Segment: "Segment1", Axis: Sideways, Current: 0, Safe: 0, Lower: -90, Upper: 90},
		{ID: "SJ1V", Category: Servo, Segment: "Joint1", Axis: Vertical, Current: 0, Safe: 0, Lower: -80, Upper: 80},
		{ID: "SJ1H", Category: Servo, Segment: "Joint1", Axis: Horizontal, Current: 0, Safe: 0, Lower: -80, Upper: 80},
		{ID: "MS2F", Category: Motor, Segment: "Segment2", Axis: Forwards, Current: 0, Safe: 0, Lower: -80, Upper: 95},
		{ID: "MS2S", Category: Motor, Segment: "Segment2", Axis: Sideways, Current: 0, Safe: 0, Lower: -90, Upper: 90},
		{ID: "SJ2V", Category: Servo, Segment: "Joint2", Axis: Vertical, Current: 0, Safe: 0, Lower: -80, Upper: 80},
		{ID: "SJ2H", Category: Servo, Segment: "Joint2", Axis: Horizontal, Current: 0, Safe: 0, Lower: -80, Upper: 80},
		{ID: "MS3F", Category: Motor, Segment: "Segment3", Axis: Forwards, Current: 0, Safe: 0, Lower: -80, Upper: 95},
		{ID: "MS3S", Category: Motor, Segment: "Segment3", Axis: Sideways, Current: 0, Safe: 0, Lower: -90, Upper: 90},
	}
}

// ComplementID returns the Forward/Sideways counterpart id, or "" when
// the suffix is not an F/S pair (servo Vertical/Horizontal channels have
// no complement).
func ComplementID(id string) string {
	if id == "" {
		return ""
	}
	switch id[len(id)-1] {
	case 'F':
		return id[:len(id)-1] + "S"
	case 'S':
		return id[:len(id)-1] + "F"
	}
	return ""
}
