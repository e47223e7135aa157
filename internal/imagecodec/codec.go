// Package imagecodec turns stored image bytes into image.Image values and
// back, choosing the output encoding from the source file extension so a
// filtered image keeps the format it arrived in.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the WebP decoder with image.Decode
)

// JPEGQuality is the quality used when re-encoding JPEG output.
const JPEGQuality = 95

var (
	// ErrUnsupportedFormat is returned for an extension with no encoder.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmpty is returned when decoding zero bytes.
	ErrEmpty = errors.New("empty image data")
)

// mimeTypes maps lowercase extensions to content types.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// IsSupported reports whether ext can be both decoded and encoded.
func IsSupported(ext string) bool {
	_, ok := mimeTypes[strings.ToLower(ext)]
	return ok
}

// MIMEType returns the content type for ext, or application/octet-stream.
func MIMEType(ext string) string {
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Decode decodes data, applying any EXIF orientation so filters see the
// image the way a viewer would.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img to w in the format implied by ext.
func Encode(w io.Writer, img image.Image, ext string) error {
	ext = strings.ToLower(ext)
	if ext == ".webp" {
		if err := webp.Encode(w, img, &webp.Options{Quality: 90}); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		return nil
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// EncodeBytes is Encode into a new buffer.
func EncodeBytes(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, ext); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
