// Package pipeline runs one filter invocation end to end: resolve the
// request, fetch the source object, apply the filter, write the filtered
// image and its parameter record back, and answer with public URLs.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"

	"github.com/fpang/cartoonaf/internal/filter"
)

var (
	// ErrInvalidRequest is returned for a request that is not valid JSON or
	// lacks a required field.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDecode is returned when the source bytes are not a decodable image.
	ErrDecode = errors.New("decode source image")
)

var validate = validator.New()

// Request is the invocation payload. Numeric fields are pointers so a
// missing field and an explicit null both fall back to the default. Flags is
// decoded as any JSON number and truncated toward zero, so 1.0 and 1 agree.
type Request struct {
	Name        string   `json:"name" validate:"required"`
	Filter      string   `json:"filter" validate:"required"`
	Flags       *float64 `json:"flags,omitempty"`
	SigmaS      *float64 `json:"sigma_s,omitempty"`
	SigmaR      *float64 `json:"sigma_r,omitempty"`
	ShadeFactor *float64 `json:"shade_factor,omitempty"`
}

// ParseRequest decodes and validates a JSON request body.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Params returns the parameter record with defaults substituted.
func (r Request) Params() filter.Params {
	var p filter.Params
	if r.Flags != nil {
		p.Flags = int(*r.Flags)
	}
	if r.SigmaS != nil {
		p.SigmaS = *r.SigmaS
	}
	if r.SigmaR != nil {
		p.SigmaR = *r.SigmaR
	}
	if r.ShadeFactor != nil {
		p.ShadeFactor = *r.ShadeFactor
	}
	return p
}
