package stix

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDirection = errors.New("unknown edge direction")

// EdgeDirection is interpreted relative to an anchor node: Out means the anchor is the source
type EdgeDirection byte

const (
	Out EdgeDirection = iota
	In
)

func (ed EdgeDirection) String() string {
	switch ed {
	case Out:
		return "outgoing"
	case In:
		return "incoming"
	}
	return fmt.Sprintf("EdgeDirection(%d)", ed)
}

// Reverse flips the point of view
func (ed EdgeDirection) Reverse() EdgeDirection {
	if ed == Out {
		return In
	}
	return Out
}

// ParseEdgeDirection accepts the long and short forms, case insensitive
func ParseEdgeDirection(s string) (EdgeDirection, error) {
	switch strings.ToLower(s) {
	case "outgoing", "out":
		return Out, nil
	case "incoming", "in":
		return In, nil
	}
	return Out, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}
