package types

import (
	"fmt"
	"strings"
)

// Capabilities is the bitfield a runtime returns at handshake to announce
// the optional interfaces it serves.
type Capabilities uint8

const (
	CapStateSync Capabilities = 1 << iota
	CapSimulation

	// KnownCapabilities has every bit this version understands.
	KnownCapabilities = CapStateSync | CapSimulation
)

var capabilityNames = []struct {
	bit  Capabilities
	name string
}{
	{CapStateSync, "StateSync"},
	{CapSimulation, "Simulation"},
}

// Has reports whether every bit in want is set.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// Unknown returns the bits this version has no name for.
func (c Capabilities) Unknown() Capabilities {
	return c &^ KnownCapabilities
}

// String joins the set capability names with "|", e.g. "StateSync|Simulation".
func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range capabilityNames {
		if c.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if u := c.Unknown(); u != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(u)))
	}
	return strings.Join(parts, "|")
}
