// Package socd tracks the physical state of four directional keys and
// resolves simultaneous opposing presses (SOCD) into a logical key state
// that never reports both members of an axis as held.
//
// The package performs no I/O. Callers feed it Transitions and read back
// Virtual states; see the emitter package for the loop that drives it.
package socd

import "fmt"

// Linux evdev key codes for the bound keys.
const (
	CodeW uint16 = 17
	CodeA uint16 = 30
	CodeS uint16 = 31
	CodeD uint16 = 32
)

// LogicalKey is one of the four directional keys.
type LogicalKey uint8

const (
	Up LogicalKey = iota
	Down
	Left
	Right

	// NoKey marks an axis that has not seen a press yet.
	NoKey LogicalKey = 0xff
)

// NumKeys is the number of logical keys.
const NumKeys = 4

// Keys lists every logical key in report order.
var Keys = [NumKeys]LogicalKey{Up, Down, Left, Right}

// String returns the key name.
func (k LogicalKey) String() string {
	switch k {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case NoKey:
		return "none"
	default:
		return fmt.Sprintf("key(%d)", uint8(k))
	}
}

// Axis groups two opposing keys.
type Axis uint8

const (
	Vertical Axis = iota
	Horizontal
)

// NumAxes is the number of axes.
const NumAxes = 2

// Axes lists both axes.
var Axes = [NumAxes]Axis{Vertical, Horizontal}

// Members returns the two keys of the axis.
func (a Axis) Members() (LogicalKey, LogicalKey) {
	if a == Vertical {
		return Up, Down
	}
	return Left, Right
}

// Orthogonal returns the other axis.
func (a Axis) Orthogonal() Axis {
	if a == Vertical {
		return Horizontal
	}
	return Vertical
}

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// AxisOf returns the axis k belongs to.
func AxisOf(k LogicalKey) Axis {
	if k == Up || k == Down {
		return Vertical
	}
	return Horizontal
}

// Opposite returns the other member of k's axis.
func Opposite(k LogicalKey) LogicalKey {
	switch k {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return NoKey
	}
}

// Binding maps logical keys to physical key codes.
type Binding [NumKeys]uint16

// DefaultBinding binds the keys to WASD.
var DefaultBinding = Binding{
	Up:    CodeW,
	Down:  CodeS,
	Left:  CodeA,
	Right: CodeD,
}

// Code returns the physical code bound to k.
func (b Binding) Code(k LogicalKey) uint16 {
	return b[k]
}

// Lookup returns the logical key bound to code.
func (b Binding) Lookup(code uint16) (LogicalKey, bool) {
	for i, c := range b {
		if c == code {
			return LogicalKey(i), true
		}
	}
	return NoKey, false
}

// Codes returns the bound codes in report order.
func (b Binding) Codes() []uint16 {
	out := make([]uint16, 0, NumKeys)
	for _, k := range Keys {
		out = append(out, b[k])
	}
	return out
}

// Transition is a single physical key change.
type Transition struct {
	Code uint16
	Down bool
}

// Batch is the set of transitions read in one wait.
type Batch []Transition
