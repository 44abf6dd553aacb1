// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Loader sample related abstractions.
//
// A Sample is the unit of exchange with the embedding data-loading pipeline: a
// mapping from field keys to values, one of which holds the decoded video
// frames and others hold scalar metadata. Transforms in this repository mutate
// a Sample in place and hand it back.

package sample

import (
	"errors"
	"fmt"
	"image"
)

// ErrMissingField is a sentinel error for a required field absent from a Sample.
var ErrMissingField = errors.New("missing field")

// Sample is a mapping of field keys to values as received from the loader.
type Sample map[string]interface{}

// Frames extracts the decoded frame sequence stored under key.
//
// The loader hands frames over either as []image.Image or as a slice of a
// concrete image type.
func Frames(s Sample, key string) ([]image.Image, error) {
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", key, ErrMissingField)
	}

	switch frames := v.(type) {
	case []image.Image:
		return frames, nil
	case []*image.NRGBA:
		out := make([]image.Image, len(frames))
		for i, f := range frames {
			out[i] = f
		}
		return out, nil
	case []*image.RGBA:
		out := make([]image.Image, len(frames))
		for i, f := range frames {
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported frame container %T", key, v)
	}
}

// FirstInt extracts a scalar integer stored under key.
//
// Loader metadata fields arrive as length-1 containers (a historical artifact
// of the batching layer), so the first element is taken. Bare scalars are
// accepted as well.
func FirstInt(s Sample, key string) (int, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("field %q: %w", key, ErrMissingField)
	}

	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case []int:
		if len(val) == 0 {
			return 0, fmt.Errorf("field %q: empty container", key)
		}
		return val[0], nil
	case []float64:
		if len(val) == 0 {
			return 0, fmt.Errorf("field %q: empty container", key)
		}
		return int(val[0]), nil
	case []interface{}:
		if len(val) == 0 {
			return 0, fmt.Errorf("field %q: empty container", key)
		}
		switch e := val[0].(type) {
		case int:
			return e, nil
		case float64:
			return int(e), nil
		}
		return 0, fmt.Errorf("field %q: unsupported scalar type %T", key, val[0])
	default:
		return 0, fmt.Errorf("field %q: unsupported scalar type %T", key, v)
	}
}
