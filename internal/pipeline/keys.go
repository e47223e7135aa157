package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/fpang/cartoonaf/internal/config"
)

// PublicPrefix is the key prefix for every object the pipeline writes.
const PublicPrefix = "public/"

// DestinationBase returns the directory, below PublicPrefix, that holds the
// outputs for a source. For KeyBasename it is the source name without its
// extension and without a leading PublicPrefix; for KeyHash it is the hex
// SHA-256 of the source bytes.
func DestinationBase(strategy config.KeyStrategy, name string, source []byte) string {
	if strategy == config.KeyHash {
		sum := sha256.Sum256(source)
		return hex.EncodeToString(sum[:])
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.TrimPrefix(base, PublicPrefix)
}

// ImageKey is the key of a filtered image.
func ImageKey(base, token, ext string) string {
	return PublicPrefix + base + "/" + token + ext
}

// ParamsKey is the key of the parameter record stored beside a filtered image.
func ParamsKey(base, token string) string {
	return PublicPrefix + base + "/" + token + ".json"
}
