//go:build !opencv

package filter

import "fmt"

func newOpenCVEngine() (Engine, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags opencv", ErrEngineUnavailable)
}
