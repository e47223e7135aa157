//go:build opencv

package filter

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var errEmptyMat = errors.New("opencv produced an empty image")

// OpenCVEngine delegates to OpenCV's photo module through gocv. It needs the
// OpenCV shared libraries at build and run time.
type OpenCVEngine struct{}

func newOpenCVEngine() (Engine, error) {
	return OpenCVEngine{}, nil
}

// Name returns "opencv".
func (OpenCVEngine) Name() string { return "opencv" }

// EdgePreserving calls cv::edgePreservingFilter.
func (OpenCVEngine) EdgePreserving(img image.Image, mode EdgeMode, sigmaS, sigmaR float64) (image.Image, error) {
	return withMats(img, func(src gocv.Mat, dst *gocv.Mat) error {
		if err := gocv.EdgePreservingFilter(src, dst, gocv.EdgeFilter(mode), float32(sigmaS), float32(sigmaR)); err != nil {
			return fmt.Errorf("opencv EdgePreservingFilter: %w", err)
		}
		return nil
	})
}

// DetailEnhance calls cv::detailEnhance.
func (OpenCVEngine) DetailEnhance(img image.Image, sigmaS, sigmaR float64) (image.Image, error) {
	return withMats(img, func(src gocv.Mat, dst *gocv.Mat) error {
		if err := gocv.DetailEnhance(src, dst, float32(sigmaS), float32(sigmaR)); err != nil {
			return fmt.Errorf("opencv DetailEnhance: %w", err)
		}
		return nil
	})
}

// Stylization calls cv::stylization.
func (OpenCVEngine) Stylization(img image.Image, sigmaS, sigmaR float64) (image.Image, error) {
	return withMats(img, func(src gocv.Mat, dst *gocv.Mat) error {
		if err := gocv.Stylization(src, dst, float32(sigmaS), float32(sigmaR)); err != nil {
			return fmt.Errorf("opencv Stylization: %w", err)
		}
		return nil
	})
}

// PencilSketch calls cv::pencilSketch, which yields both outputs at once.
func (OpenCVEngine) PencilSketch(img image.Image, sigmaS, sigmaR, shadeFactor float64) (image.Image, image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, nil, fmt.Errorf("image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	color := gocv.NewMat()
	defer color.Close()

	if err := gocv.PencilSketch(src, &gray, &color, float32(sigmaS), float32(sigmaR), float32(shadeFactor)); err != nil {
		return nil, nil, fmt.Errorf("opencv PencilSketch: %w", err)
	}
	if gray.Empty() || color.Empty() {
		return nil, nil, errEmptyMat
	}

	grayImg, err := gray.ToImage()
	if err != nil {
		return nil, nil, fmt.Errorf("gray mat to image: %w", err)
	}
	colorImg, err := color.ToImage()
	if err != nil {
		return nil, nil, fmt.Errorf("color mat to image: %w", err)
	}
	return grayImg, colorImg, nil
}

func withMats(img image.Image, op func(src gocv.Mat, dst *gocv.Mat) error) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := op(src, &dst); err != nil {
		return nil, err
	}
	if dst.Empty() {
		return nil, errEmptyMat
	}
	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	return out, nil
}
