//go:build !opencv

package main

import (
	"path/filepath"
	"testing"
)

func TestApply_OpenCVUntagged(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "in.png")
	if _, err := execute(t, "apply", "--filter", "ep", "--engine", "opencv", in, filepath.Join(dir, "o.png")); err == nil {
		t.Error("opencv engine should be unavailable without the opencv build tag")
	}
}
