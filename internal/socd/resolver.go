package socd

import (
	"fmt"
	"strings"
)

// Virtual is the key state reported downstream.
type Virtual [NumKeys]bool

func (v Virtual) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range Keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%t", k, v[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Policy decides which member of a conflicting axis is reported.
type Policy uint8

const (
	// PolicyLast reports the most recently pressed member.
	PolicyLast Policy = iota
	// PolicyFirst keeps reporting the member that was held first.
	PolicyFirst
	// PolicyNeutral reports neither member.
	PolicyNeutral
)

func (p Policy) String() string {
	switch p {
	case PolicyLast:
		return "last"
	case PolicyFirst:
		return "first"
	case PolicyNeutral:
		return "neutral"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy parses a policy name. The empty string selects PolicyLast.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return PolicyLast, nil
	case "first":
		return PolicyFirst, nil
	case "neutral":
		return PolicyNeutral, nil
	default:
		return PolicyLast, fmt.Errorf("unknown resolver policy: %q", s)
	}
}

// winner returns the reported member of a conflicting axis, or NoKey.
func (p Policy) winner(a Axis, last LogicalKey) LogicalKey {
	x, y := a.Members()
	if last != x && last != y {
		return NoKey
	}
	switch p {
	case PolicyLast:
		return last
	case PolicyFirst:
		return Opposite(last)
	default:
		return NoKey
	}
}

// Resolve computes the last-wins virtual state for s.
func Resolve(s State) Virtual {
	return PolicyLast.Resolve(s)
}

// Resolve computes the virtual state for s. Axes with at most one held
// member mirror the real state; conflicting axes report the policy winner.
func (p Policy) Resolve(s State) Virtual {
	var out Virtual
	for _, a := range Axes {
		x, y := a.Members()
		if !s.Conflict(a) {
			out[x] = s.Real[x]
			out[y] = s.Real[y]
			continue
		}
		if w := p.winner(a, s.LastPressed[a]); w != NoKey {
			out[w] = true
		}
	}
	return out
}
