// Package filter defines the closed set of non-photorealistic filters, the
// parameter record each one is driven by, and the engines that implement
// them.
//
// A filter token from a request resolves to exactly one Kind. Each Kind maps
// to a Capability that knows which parameters it reads and how to apply
// itself through an Engine. Unknown tokens are a typed error, ErrUnknownFilter;
// whether that error is fatal is the caller's policy.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned for a token outside the closed set.
var ErrUnknownFilter = errors.New("unknown filter")

// Kind identifies one of the five filters.
type Kind int

const (
	EdgePreserving Kind = iota + 1
	DetailEnhance
	Stylization
	PencilSketchGray
	PencilSketchColor
)

type kindInfo struct {
	token       string // storage key token, e.g. "ep"
	alias       string // long-form request token
	responseKey string // key of the output URL in the response body
}

var kinds = map[Kind]kindInfo{
	EdgePreserving:    {token: "ep", alias: "edge-preserving", responseKey: "edgePreserving"},
	DetailEnhance:     {token: "de", alias: "detail-enhance", responseKey: "detailEnhance"},
	Stylization:       {token: "style", alias: "stylization", responseKey: "stylization"},
	PencilSketchGray:  {token: "ps_gray", alias: "pencil-sketch-gray", responseKey: "pencilSketch_gray"},
	PencilSketchColor: {token: "ps_color", alias: "pencil-sketch-color", responseKey: "pencilSketch_color"},
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{EdgePreserving, DetailEnhance, Stylization, PencilSketchGray, PencilSketchColor}
}

// ParseKind resolves a request token. Both the short storage token ("ep")
// and the long alias ("edge-preserving") are accepted, case-insensitively.
func ParseKind(token string) (Kind, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for _, k := range Kinds() {
		info := kinds[k]
		if t == info.token || t == info.alias {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, token)
}

// KindFromToken maps a storage token back to its Kind. Unlike ParseKind it
// accepts only the exact short token, which is what appears in object keys.
func KindFromToken(token string) (Kind, bool) {
	for _, k := range Kinds() {
		if kinds[k].token == token {
			return k, true
		}
	}
	return 0, false
}

// Token is the short form used in destination keys.
func (k Kind) Token() string { return kinds[k].token }

// Alias is the long request form.
func (k Kind) Alias() string { return kinds[k].alias }

// ResponseKey names the output URL field in the response body.
func (k Kind) ResponseKey() string { return kinds[k].responseKey }

// Valid reports whether k is one of the five kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].alias
}
