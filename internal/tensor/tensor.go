// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Dense clip tensors exchanged between transforms.
//
// A Video is a 4D row-major float32 tensor. Transforms in this repository use
// two layouts: THWC (time, height, width, channel) for raw decoded clips and
// TCHW for model-facing output. The layout is a documented convention of the
// producing operation, the tensor itself only knows its shape.

package tensor

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Video is a dense 4D float32 tensor.
type Video struct {
	Shape [4]int
	Data  []float32
}

// New creates a zero-valued Video with given shape.
func New(shape [4]int) *Video {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Video{Shape: shape, Data: make([]float32, n)}
}

func (v *Video) index(i, j, k, l int) int {
	return ((i*v.Shape[1]+j)*v.Shape[2]+k)*v.Shape[3] + l
}

// At returns the element at given 4D coordinates.
func (v *Video) At(i, j, k, l int) float32 {
	return v.Data[v.index(i, j, k, l)]
}

// Set stores the element at given 4D coordinates.
func (v *Video) Set(i, j, k, l int, val float32) {
	v.Data[v.index(i, j, k, l)] = val
}

// FromImages stacks decoded frames along a new leading temporal axis into a
// THWC tensor with raw [0,255] channel values.
//
// All frames must share dimensions.
func FromImages(frames []image.Image) (*Video, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("FromImages() no frames to stack")
	}

	b := frames[0].Bounds()
	h, w := b.Dy(), b.Dx()
	v := New([4]int{len(frames), h, w, 3})

	for t, frame := range frames {
		fb := frame.Bounds()
		if fb.Dy() != h || fb.Dx() != w {
			return nil, fmt.Errorf("FromImages() frame %d size %dx%d differs from first frame %dx%d",
				t, fb.Dx(), fb.Dy(), w, h)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(frame.At(fb.Min.X+x, fb.Min.Y+y)).(color.NRGBA)
				v.Set(t, y, x, 0, float32(c.R))
				v.Set(t, y, x, 1, float32(c.G))
				v.Set(t, y, x, 2, float32(c.B))
			}
		}
	}

	return v, nil
}

// FrameImage extracts frame t of a THWC tensor as an image.
//
// Channel values are clamped to [0,255], the alpha channel is opaque. Only
// makes sense for tensors holding raw pixel levels.
func (v *Video) FrameImage(t int) *image.NRGBA {
	h, w, c := v.Shape[1], v.Shape[2], v.Shape[3]
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := color.NRGBA{A: 0xff}
			px.R = clampByte(v.At(t, y, x, 0))
			if c > 1 {
				px.G = clampByte(v.At(t, y, x, 1))
				px.B = clampByte(v.At(t, y, x, 2))
			} else {
				px.G, px.B = px.R, px.R
			}
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}

func clampByte(f float32) uint8 {
	r := math.Round(float64(f))
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}
