package filter

import (
	"context"
	"fmt"
	"image"
)

// Engine performs the pixel work behind each filter.
type Engine interface {
	Name() string
	EdgePreserving(img image.Image, mode EdgeMode, sigmaS, sigmaR float64) (image.Image, error)
	DetailEnhance(img image.Image, sigmaS, sigmaR float64) (image.Image, error)
	Stylization(img image.Image, sigmaS, sigmaR float64) (image.Image, error)
	// PencilSketch returns the single-channel sketch and its colored variant.
	PencilSketch(img image.Image, sigmaS, sigmaR, shadeFactor float64) (gray, color image.Image, err error)
}

type applyFunc func(e Engine, img image.Image, p Params) (image.Image, error)

// Capability is one Kind bound to an Engine.
type Capability struct {
	Kind  Kind
	Shape Shape

	engine Engine
	apply  applyFunc
}

// Apply runs the filter. The context is checked before the pixel work starts;
// the engines themselves do not block.
func (c Capability) Apply(ctx context.Context, img image.Image, p Params) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := c.apply(c.engine, img, p)
	if err != nil {
		return nil, fmt.Errorf("%s (%s engine): %w", c.Kind, c.engine.Name(), err)
	}
	return out, nil
}

type capabilitySpec struct {
	shape Shape
	apply applyFunc
}

var capabilitySpecs = map[Kind]capabilitySpec{
	EdgePreserving: {
		shape: UsesFlags | UsesSigmaS | UsesSigmaR,
		apply: func(e Engine, img image.Image, p Params) (image.Image, error) {
			return e.EdgePreserving(img, EdgeModeFromFlags(p.Flags), p.SigmaS, p.SigmaR)
		},
	},
	DetailEnhance: {
		shape: UsesSigmaS | UsesSigmaR,
		apply: func(e Engine, img image.Image, p Params) (image.Image, error) {
			return e.DetailEnhance(img, p.SigmaS, p.SigmaR)
		},
	},
	Stylization: {
		shape: UsesSigmaS | UsesSigmaR,
		apply: func(e Engine, img image.Image, p Params) (image.Image, error) {
			return e.Stylization(img, p.SigmaS, p.SigmaR)
		},
	},
	PencilSketchGray: {
		shape: UsesSigmaS | UsesSigmaR | UsesShadeFactor,
		apply: func(e Engine, img image.Image, p Params) (image.Image, error) {
			gray, _, err := e.PencilSketch(img, p.SigmaS, p.SigmaR, p.ShadeFactor)
			return gray, err
		},
	},
	PencilSketchColor: {
		shape: UsesSigmaS | UsesSigmaR | UsesShadeFactor,
		apply: func(e Engine, img image.Image, p Params) (image.Image, error) {
			_, color, err := e.PencilSketch(img, p.SigmaS, p.SigmaR, p.ShadeFactor)
			return color, err
		},
	},
}

// Registry resolves tokens to capabilities on one engine.
type Registry struct {
	engine Engine
	caps   map[Kind]Capability
}

// NewRegistry binds every Kind to e.
func NewRegistry(e Engine) *Registry {
	r := &Registry{engine: e, caps: make(map[Kind]Capability, len(capabilitySpecs))}
	for k, spec := range capabilitySpecs {
		r.caps[k] = Capability{Kind: k, Shape: spec.shape, engine: e, apply: spec.apply}
	}
	return r
}

// Engine returns the engine the registry was built on.
func (r *Registry) Engine() Engine { return r.engine }

// Lookup resolves token. Unknown tokens return ErrUnknownFilter.
func (r *Registry) Lookup(token string) (Capability, error) {
	k, err := ParseKind(token)
	if err != nil {
		return Capability{}, err
	}
	return r.Get(k), nil
}

// Get returns the capability for a known kind.
func (r *Registry) Get(k Kind) Capability {
	return r.caps[k]
}
