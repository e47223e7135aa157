package filter

import "strings"

// Params is the flat parameter record persisted next to every output.
// Ranges are not validated; callers own the meaning of their numbers.
type Params struct {
	Flags       int     `json:"flags"`
	SigmaS      float64 `json:"sigma_s"`
	SigmaR      float64 `json:"sigma_r"`
	ShadeFactor float64 `json:"shade_factor"`
}

// Shape is the set of Params fields a filter reads.
type Shape uint8

const (
	UsesFlags Shape = 1 << iota
	UsesSigmaS
	UsesSigmaR
	UsesShadeFactor
)

// Has reports whether s includes f.
func (s Shape) Has(f Shape) bool { return s&f == f }

func (s Shape) String() string {
	var parts []string
	for _, f := range []struct {
		bit  Shape
		name string
	}{
		{UsesFlags, "flags"},
		{UsesSigmaS, "sigma_s"},
		{UsesSigmaR, "sigma_r"},
		{UsesShadeFactor, "shade_factor"},
	} {
		if s.Has(f.bit) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, ",")
}

// EdgeMode selects the smoothing kernel of the edge-preserving filter. The
// numeric values are the wire values of the flags parameter.
type EdgeMode int

const (
	RecursiveFilter       EdgeMode = 1
	NormalizedConvolution EdgeMode = 2
)

// EdgeModeFromFlags maps the flags parameter to a mode. 2 selects normalized
// convolution; every other value, including the default 0, selects the
// recursive filter.
func EdgeModeFromFlags(flags int) EdgeMode {
	if flags == int(NormalizedConvolution) {
		return NormalizedConvolution
	}
	return RecursiveFilter
}
