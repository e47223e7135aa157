// Package gallery lists what the pipeline has produced for one source and
// maps each stored object back to the response key a client expects.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/objectstore"
)

// ErrEmptyPrefix is returned when List is called without a prefix.
var ErrEmptyPrefix = errors.New("gallery prefix is required")

// Reserved object stems.
const (
	sourceStem = "source"
	// grayStem is the single-channel output written by early deployments.
	grayStem = "gray"
)

// legacyStems are hyphenated names written by early deployments. Each maps
// to the kind whose output it holds. An object under the current token takes
// precedence over its legacy counterpart.
var legacyStems = map[string]filter.Kind{
	"ps-gray":  filter.PencilSketchGray,
	"ps-color": filter.PencilSketchColor,
}

// Listing is the gallery of one destination directory.
type Listing struct {
	Prefix string            `json:"prefix"`
	Images map[string]string `json:"images"`
	// Params is keyed by filter response key. Only filled when requested.
	Params map[string]filter.Params `json:"params,omitempty"`
}

// Gallery reads listings from a store.
type Gallery struct {
	store  objectstore.Store
	bucket string
	region string
}

// New returns a Gallery whose URLs point at bucket in region.
func New(store objectstore.Store, bucket, region string) *Gallery {
	return &Gallery{store: store, bucket: bucket, region: region}
}

// List returns the objects directly under prefix. A trailing slash is added
// when missing. Objects in deeper directories and objects whose name is not
// a known or legacy stem are ignored. With withParams set, each <token>.json record is
// fetched and decoded; unreadable records are skipped with a warning.
func (g *Gallery) List(ctx context.Context, prefix string, withParams bool) (Listing, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Listing{}, ErrEmptyPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	keys, err := g.store.List(ctx, prefix)
	if err != nil {
		return Listing{}, fmt.Errorf("list %s: %w", prefix, err)
	}

	listing := Listing{Prefix: prefix, Images: make(map[string]string)}
	if withParams {
		listing.Params = make(map[string]filter.Params)
	}

	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		if ext == ".json" {
			if !withParams {
				continue
			}
			kind, ok := filter.KindFromToken(stem)
			if !ok {
				continue
			}
			p, err := g.readParams(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Skipping unreadable parameter record")
				continue
			}
			listing.Params[kind.ResponseKey()] = p
			continue
		}

		switch stem {
		case sourceStem, grayStem:
			listing.Images[stem] = objectstore.URL(g.bucket, g.region, key)
		default:
			if kind, ok := filter.KindFromToken(stem); ok {
				listing.Images[kind.ResponseKey()] = objectstore.URL(g.bucket, g.region, key)
			} else if kind, ok := legacyStems[stem]; ok {
				if _, taken := listing.Images[kind.ResponseKey()]; !taken {
					listing.Images[kind.ResponseKey()] = objectstore.URL(g.bucket, g.region, key)
				}
			}
		}
	}

	log.Debug().Str("prefix", prefix).Int("objects", len(keys)).Int("images", len(listing.Images)).Msg("Gallery listed")
	return listing, nil
}

func (g *Gallery) readParams(ctx context.Context, key string) (filter.Params, error) {
	data, err := g.store.Get(ctx, key)
	if err != nil {
		return filter.Params{}, err
	}
	var p filter.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return filter.Params{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return p, nil
}
