package filter

import "image"

// detailFactor is how strongly DetailEnhance amplifies the residual between
// the luma and its smoothed version.
const detailFactor = 3

// fullShadeFactor is the shade factor at which the pencil sketch takes on the
// full smoothed tone. Larger values are clamped to it.
const fullShadeFactor = 0.1

// GoEngine implements every filter in pure Go on top of the domain
// transform. It needs no cgo and is the default engine.
type GoEngine struct{}

// Name returns "go".
func (GoEngine) Name() string { return "go" }

// EdgePreserving smooths flat regions while keeping strong edges.
func (GoEngine) EdgePreserving(img image.Image, mode EdgeMode, sigmaS, sigmaR float64) (image.Image, error) {
	p, alpha := rgbPlanes(img)
	return domainTransform(p, sigmaS, sigmaR, mode).toNRGBA(alpha), nil
}

// DetailEnhance splits luma into a smoothed base and a detail layer, boosts
// the detail layer and recombines it with the original chroma.
func (GoEngine) DetailEnhance(img image.Image, sigmaS, sigmaR float64) (image.Image, error) {
	p, alpha := rgbPlanes(img)
	c := toYCC(p)

	luma := &planes{w: p.w, h: p.h, ch: [][]float64{c.y}}
	base := domainTransform(luma, sigmaS, sigmaR, RecursiveFilter).ch[0]

	enhanced := make([]float64, len(c.y))
	for i := range c.y {
		enhanced[i] = base[i] + detailFactor*(c.y[i]-base[i])
	}
	c.y = enhanced
	return c.toPlanes(p.w, p.h).toNRGBA(alpha), nil
}

// Stylization flattens color with normalized convolution and darkens
// wherever the smoothed image has a strong gradient, giving an inked look.
func (GoEngine) Stylization(img image.Image, sigmaS, sigmaR float64) (image.Image, error) {
	p, alpha := rgbPlanes(img)
	res := domainTransform(p, sigmaS, sigmaR, NormalizedConvolution)

	edge := make([]float64, p.w*p.h)
	for _, c := range res.ch {
		for i, m := range sobelMagnitude(c, p.w, p.h) {
			edge[i] += m
		}
	}
	for _, c := range res.ch {
		for i := range c {
			c[i] *= clamp01(1 - edge[i])
		}
	}
	return res.toNRGBA(alpha), nil
}

// PencilSketch draws dark strokes along the gradients of the smoothed luma.
// shadeFactor blends the smoothed tone into the strokes: 0 gives bare lines,
// 0.1 and above give fully shaded paper. The color variant keeps the source
// chroma under the sketch luma.
func (GoEngine) PencilSketch(img image.Image, sigmaS, sigmaR, shadeFactor float64) (image.Image, image.Image, error) {
	p, alpha := rgbPlanes(img)
	src := toYCC(p)
	smooth := toYCC(domainTransform(p, sigmaS, sigmaR, NormalizedConvolution))

	shade := clamp01(shadeFactor / fullShadeFactor)
	grad := sobelMagnitude(smooth.y, p.w, p.h)
	sketch := make([]float64, len(grad))
	for i, g := range grad {
		line := clamp01(1 - g)
		sketch[i] = clamp01(line * (1 - shade*(1-smooth.y[i])))
	}

	colored := ycc{y: sketch, cb: src.cb, cr: src.cr}
	return grayImage(sketch, p.w, p.h), colored.toPlanes(p.w, p.h).toNRGBA(alpha), nil
}
