// Package coding computes coding-DNA (c.) positions for every base of a reference sequence.
package coding

import (
	"fmt"
	"strconv"
)

// Prefix is the coding-DNA notation marker.
const Prefix = "c."

// PositionKind tags the form of a coding position.
type PositionKind int

const (
	Unknown          PositionKind = iota
	Coding                        // c.N
	IntronOffset                  // c.N+k, N may be negative in the 5' UTR
	Upstream                      // c.-N
	Downstream                    // c.*N
	DownstreamIntron              // c.*N+k
)

// Position is a coding-DNA position. Base holds the numbered position and
// Offset the intronic distance from it (IntronOffset, DownstreamIntron only).
type Position struct {
	Kind   PositionKind
	Base   int
	Offset int
}

// String formats the position with the c. prefix, e.g. "c.76", "c.88+1",
// "c.-14", "c.*6", "c.*6+2".
func (p Position) String() string {
	switch p.Kind {
	case Coding, Upstream:
		return Prefix + strconv.Itoa(p.Base)
	case IntronOffset:
		return fmt.Sprintf("%s%d+%d", Prefix, p.Base, p.Offset)
	case Downstream:
		return fmt.Sprintf("%s*%d", Prefix, p.Base)
	case DownstreamIntron:
		return fmt.Sprintf("%s*%d+%d", Prefix, p.Base, p.Offset)
	default:
		return Prefix + "."
	}
}
