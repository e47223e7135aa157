package imagecodec

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
)

// Metadata is the EXIF summary logged for a source image and printed by
// `cartoonaf inspect`.
type Metadata struct {
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
	DateTaken   time.Time `json:"dateTaken,omitzero"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	HasGPS      bool      `json:"hasGps"`
}

// ReadMetadata extracts EXIF fields from data. PNG and GIF sources usually
// carry none, which surfaces as an error the caller may ignore.
func ReadMetadata(data []byte) (*Metadata, error) {
	exif, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode EXIF metadata: %w", err)
	}

	md := &Metadata{
		CameraMake:  strings.TrimSpace(exif.Make),
		CameraModel: strings.TrimSpace(exif.Model),
	}
	if lat, lon := exif.GPS.Latitude(), exif.GPS.Longitude(); lat != 0 || lon != 0 {
		md.Latitude, md.Longitude, md.HasGPS = lat, lon, true
	}
	switch {
	case !exif.DateTimeOriginal().IsZero():
		md.DateTaken = exif.DateTimeOriginal()
	case !exif.CreateDate().IsZero():
		md.DateTaken = exif.CreateDate()
	case !exif.ModifyDate().IsZero():
		md.DateTaken = exif.ModifyDate()
	}
	return md, nil
}
