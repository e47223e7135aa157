package filter

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when an engine was not compiled in.
var ErrEngineUnavailable = errors.New("filter engine unavailable")

// NewEngine returns the engine registered under name: "go" (default, also
// selected by an empty name) or "opencv" (requires the opencv build tag).
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", "go":
		return GoEngine{}, nil
	case "opencv":
		return newOpenCVEngine()
	default:
		return nil, fmt.Errorf("%w: %q", ErrEngineUnavailable, name)
	}
}
