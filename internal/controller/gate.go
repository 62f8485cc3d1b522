package controller

// Gate makes an effect run at most once while its trigger condition holds. It is fed the
// condition on every tick and re-arms the first tick the condition no longer holds.
type Gate uint8

const (
	// GateIdle fires on the next tick the condition holds
	GateIdle Gate = iota
	// GateLatched waits for the condition to clear
	GateLatched
)

func (g Gate) String() string {
	switch g {
	case GateIdle:
		return "idle"
	case GateLatched:
		return "latched"
	default:
		return "unknown"
	}
}

// Observe reports whether the effect should run now.
func (g *Gate) Observe(cond bool) bool {
	if !cond {
		*g = GateIdle
		return false
	}
	if *g == GateLatched {
		return false
	}
	*g = GateLatched
	return true
}

// Latch suppresses the effect until the condition clears.
func (g *Gate) Latch() {
	*g = GateLatched
}
