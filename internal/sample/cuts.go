// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sample

import "fmt"

// CutsAdder bundles a scene-cut annotation together with the video data.
//
// The video value and the cuts value are wrapped into a nested Sample stored
// under the video key, and the standalone cuts field is removed. Downstream
// consumers then find both under a single key.
type CutsAdder struct {
	cutsKey  string
	videoKey string
}

// NewCutsAdder creates a CutsAdder for given cuts and video field keys.
func NewCutsAdder(cutsKey, videoKey string) *CutsAdder {
	return &CutsAdder{cutsKey: cutsKey, videoKey: videoKey}
}

// Process rewrites the sample in place and returns it.
//
// Both configured keys must be present, otherwise an error naming the missing
// key is returned and the sample is left untouched.
func (c *CutsAdder) Process(s Sample) (Sample, error) {
	cuts, ok := s[c.cutsKey]
	if !ok {
		return nil, fmt.Errorf("CutsAdder: field %q: %w", c.cutsKey, ErrMissingField)
	}
	video, ok := s[c.videoKey]
	if !ok {
		return nil, fmt.Errorf("CutsAdder: field %q: %w", c.videoKey, ErrMissingField)
	}

	s[c.videoKey] = Sample{
		c.videoKey: video,
		c.cutsKey:  cuts,
	}
	delete(s, c.cutsKey)

	return s, nil
}
