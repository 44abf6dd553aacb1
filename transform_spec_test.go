// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Transform spec parsing tests.
package main

import (
	"testing"

	"github.com/evolution-gaming/clipprep/internal/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseTransformSpec(t *testing.T) {
	tests := map[string]struct {
		want  transform.ResizerConfig
		given string
	}{
		"Empty spec": {
			given: "",
			want:  transform.ResizerConfig{},
		},
		"Scalar resize": {
			given: "resize=256",
			want: transform.ResizerConfig{
				Resize: transform.ResizeShortest(256),
			},
		},
		"Exact resize": {
			given: "resize=240,320",
			want: transform.ResizerConfig{
				Resize: transform.ResizeExact(240, 320),
			},
		},
		"Scalar crop": {
			given: "crop=224",
			want: transform.ResizerConfig{
				Crop: transform.CropSquare(224),
			},
		},
		"Resize and exact crop": {
			given: "resize=256 crop=200,224",
			want: transform.ResizerConfig{
				Resize: transform.ResizeShortest(256),
				Crop:   transform.CropExact(200, 224),
			},
		},
		"Random crop with seed": {
			given: "resize=256 crop=224 random-crop seed=7",
			want: transform.ResizerConfig{
				Resize:     transform.ResizeShortest(256),
				Crop:       transform.CropSquare(224),
				RandomCrop: true,
				Seed:       7,
			},
		},
		"Custom sample keys": {
			given: `video-key=avi height-key=h width-key=w`,
			want: transform.ResizerConfig{
				VideoKey:  "avi",
				HeightKey: "h",
				WidthKey:  "w",
			},
		},
		"Quoted value": {
			given: `video-key="my video"`,
			want: transform.ResizerConfig{
				VideoKey: "my video",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseTransformSpec(tt.given)
			require.NoError(t, err)

			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_parseTransformSpec_Negative(t *testing.T) {
	tests := map[string]struct {
		// substring in Error()
		want  string
		given string
	}{
		"Unknown token":       {given: "scale=2", want: "unknown token"},
		"Non-numeric size":    {given: "resize=abc", want: `"resize=abc"`},
		"Negative size":       {given: "crop=-1", want: "size must be positive"},
		"Zero size":           {given: "resize=0", want: "size must be positive"},
		"Too many dimensions": {given: "crop=1,2,3", want: "want scalar or height,width pair"},
		"Flag with value":     {given: "random-crop=yes", want: "flag takes no value"},
		"Non-numeric seed":    {given: "seed=seven", want: `"seed=seven"`},
		"Unbalanced quoting":  {given: `video-key="oops`, want: "splitting transform spec"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseTransformSpec(tt.given)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
