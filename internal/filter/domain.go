package filter

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// dtIterations is the number of horizontal+vertical passes of the domain
// transform. Three passes remove the visible stripe artifacts of a single
// separable pass.
const dtIterations = 3

// planes is a float image, one slice per channel, values nominally in [0,1].
type planes struct {
	w, h int
	ch   [][]float64
}

func newPlanes(w, h, n int) *planes {
	p := &planes{w: w, h: h, ch: make([][]float64, n)}
	for i := range p.ch {
		p.ch[i] = make([]float64, w*h)
	}
	return p
}

func (p *planes) clone() *planes {
	c := &planes{w: p.w, h: p.h, ch: make([][]float64, len(p.ch))}
	for i := range p.ch {
		c.ch[i] = append([]float64(nil), p.ch[i]...)
	}
	return c
}

// rgbPlanes converts img to three RGB planes plus its alpha channel.
func rgbPlanes(img image.Image) (*planes, []uint8) {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	p := newPlanes(w, h, 3)
	alpha := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			p.ch[0][i] = float64(row[x*4]) / 255
			p.ch[1][i] = float64(row[x*4+1]) / 255
			p.ch[2][i] = float64(row[x*4+2]) / 255
			alpha[i] = row[x*4+3]
		}
	}
	return p, alpha
}

func (p *planes) toNRGBA(alpha []uint8) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, p.w, p.h))
	for y := 0; y < p.h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+p.w*4]
		for x := 0; x < p.w; x++ {
			i := y*p.w + x
			row[x*4] = to8(p.ch[0][i])
			row[x*4+1] = to8(p.ch[1][i])
			row[x*4+2] = to8(p.ch[2][i])
			row[x*4+3] = alpha[i]
		}
	}
	return out
}

func grayImage(v []float64, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = to8(v[y*w+x])
		}
	}
	return out
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// domainTransform smooths src while keeping edges, following Gastal and
// Oliveira's domain transform: the image is mapped to a 1-D domain where
// distances grow with color change, then filtered there with either a
// recursive filter or a box (normalized convolution) kernel, alternating
// horizontal and vertical passes.
//
// Non-positive sigmas leave the image unchanged.
func domainTransform(src *planes, sigmaS, sigmaR float64, mode EdgeMode) *planes {
	out := src.clone()
	if !(sigmaS > 0) || !(sigmaR > 0) || src.w == 0 || src.h == 0 {
		return out
	}

	dHdx, dVdy := domainDerivatives(src, sigmaS/sigmaR)
	scratch := newLineScratch(max(src.w, src.h))

	for i := 0; i < dtIterations; i++ {
		sigmaH := sigmaS * math.Sqrt(3) * math.Pow(2, float64(dtIterations-i-1)) /
			math.Sqrt(math.Pow(4, dtIterations)-1)

		switch mode {
		case NormalizedConvolution:
			radius := sigmaH * math.Sqrt(3)
			for _, c := range out.ch {
				for y := 0; y < out.h; y++ {
					ncLine(c, dHdx, y*out.w, 1, out.w, radius, scratch)
				}
				for x := 0; x < out.w; x++ {
					ncLine(c, dVdy, x, out.w, out.h, radius, scratch)
				}
			}
		default:
			a := math.Exp(-math.Sqrt2 / sigmaH)
			vH := feedback(dHdx, a)
			vV := feedback(dVdy, a)
			for _, c := range out.ch {
				for y := 0; y < out.h; y++ {
					rfLine(c, vH, y*out.w, 1, out.w)
				}
				for x := 0; x < out.w; x++ {
					rfLine(c, vV, x, out.w, out.h)
				}
			}
		}
	}
	return out
}

// domainDerivatives returns, per pixel, the transformed-domain distance to
// its left (dHdx) and upper (dVdy) neighbor: 1 + ratio * L1 color change.
// The first column and row hold 1 and are never read.
func domainDerivatives(p *planes, ratio float64) (dHdx, dVdy []float64) {
	n := p.w * p.h
	dHdx = make([]float64, n)
	dVdy = make([]float64, n)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			i := y*p.w + x
			var dx, dy float64
			for _, c := range p.ch {
				if x > 0 {
					dx += math.Abs(c[i] - c[i-1])
				}
				if y > 0 {
					dy += math.Abs(c[i] - c[i-p.w])
				}
			}
			dHdx[i] = 1 + ratio*dx
			dVdy[i] = 1 + ratio*dy
		}
	}
	return dHdx, dVdy
}

func feedback(d []float64, a float64) []float64 {
	v := make([]float64, len(d))
	for i, di := range d {
		v[i] = math.Pow(a, di)
	}
	return v
}

// rfLine runs the causal and anti-causal first-order recursive filter along
// n samples of f starting at start with the given stride. v[i] is the
// feedback coefficient between sample i and the previous one.
func rfLine(f, v []float64, start, stride, n int) {
	for k := 1; k < n; k++ {
		i := start + k*stride
		f[i] += v[i] * (f[i-stride] - f[i])
	}
	for k := n - 2; k >= 0; k-- {
		i := start + k*stride
		j := i + stride
		f[i] += v[j] * (f[j] - f[i])
	}
}

type lineScratch struct {
	ct, sum, tmp []float64
}

func newLineScratch(n int) *lineScratch {
	return &lineScratch{
		ct:  make([]float64, n),
		sum: make([]float64, n+1),
		tmp: make([]float64, n),
	}
}

// ncLine replaces each of n samples with the mean of every sample whose
// transformed-domain coordinate lies within radius of its own.
func ncLine(f, d []float64, start, stride, n int, radius float64, s *lineScratch) {
	ct, sum, tmp := s.ct[:n], s.sum[:n+1], s.tmp[:n]
	ct[0] = 0
	for k := 1; k < n; k++ {
		ct[k] = ct[k-1] + d[start+k*stride]
	}
	sum[0] = 0
	for k := 0; k < n; k++ {
		sum[k+1] = sum[k] + f[start+k*stride]
	}

	lo, hi := 0, 0
	for k := 0; k < n; k++ {
		for ct[lo] < ct[k]-radius {
			lo++
		}
		if hi < k {
			hi = k
		}
		for hi+1 < n && ct[hi+1] <= ct[k]+radius {
			hi++
		}
		tmp[k] = (sum[hi+1] - sum[lo]) / float64(hi-lo+1)
	}
	for k := 0; k < n; k++ {
		f[start+k*stride] = tmp[k]
	}
}

// sobelMagnitude is the 3x3 Sobel gradient magnitude of one plane with
// replicated borders.
func sobelMagnitude(v []float64, w, h int) []float64 {
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return v[y*w+x]
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			out[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

// ycc holds full-range YCbCr planes (Y in [0,1], Cb and Cr centered on 0).
type ycc struct {
	y, cb, cr []float64
}

func toYCC(p *planes) ycc {
	n := p.w * p.h
	out := ycc{y: make([]float64, n), cb: make([]float64, n), cr: make([]float64, n)}
	r, g, b := p.ch[0], p.ch[1], p.ch[2]
	for i := 0; i < n; i++ {
		out.y[i] = 0.299*r[i] + 0.587*g[i] + 0.114*b[i]
		out.cb[i] = -0.168736*r[i] - 0.331264*g[i] + 0.5*b[i]
		out.cr[i] = 0.5*r[i] - 0.418688*g[i] - 0.081312*b[i]
	}
	return out
}

func (c ycc) toPlanes(w, h int) *planes {
	p := newPlanes(w, h, 3)
	for i := range c.y {
		p.ch[0][i] = c.y[i] + 1.402*c.cr[i]
		p.ch[1][i] = c.y[i] - 0.344136*c.cb[i] - 0.714136*c.cr[i]
		p.ch[2][i] = c.y[i] + 1.772*c.cb[i]
	}
	return p
}
