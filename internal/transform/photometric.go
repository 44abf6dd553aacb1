// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Per-frame photometric pipeline.
//
// The spatial stages run on images with a bicubic-class kernel, the final
// stage converts to a normalized CHW float tensor. Training uses a random
// resized crop, evaluation a deterministic resize-shortest-side plus center
// crop. Either way any input is forced into 3-channel color.

package transform

import (
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// frameTransform is the photometric pipeline closed over configuration.
type frameTransform struct {
	size  int
	train bool
	mean  [3]float64
	std   [3]float64
	prng  *rand.Rand
}

// spatial applies the geometric stages and forces 3-channel color, producing a
// size x size frame.
func (ft *frameTransform) spatial(img image.Image) *image.NRGBA {
	if ft.train {
		return ft.randomResizedCrop(img)
	}
	out := resizeShortest(img, ft.size)
	return imaging.CropCenter(out, ft.size, ft.size)
}

// normalize converts a size x size frame into CHW float data: channel values
// scaled to [0,1] then shifted by per-channel mean/std.
func (ft *frameTransform) normalize(img *image.NRGBA, dst []float32) {
	n := ft.size * ft.size
	for y := 0; y < ft.size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < ft.size; x++ {
			px := row[x*4:]
			i := y*ft.size + x
			dst[i] = float32((float64(px[0])/255 - ft.mean[0]) / ft.std[0])
			dst[n+i] = float32((float64(px[1])/255 - ft.mean[1]) / ft.std[1])
			dst[2*n+i] = float32((float64(px[2])/255 - ft.mean[2]) / ft.std[2])
		}
	}
}

// randomResizedCrop picks a crop of random area (10-90% of the frame) and
// random aspect ratio (3/4 to 4/3), then resizes it to the target size.
//
// After 10 failed attempts to fit a window it falls back to a deterministic
// center crop of the shortest side.
func (ft *frameTransform) randomResizedCrop(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	area := float64(w * h)

	logRatioLo := math.Log(3.0 / 4.0)
	logRatioHi := math.Log(4.0 / 3.0)

	for attempt := 0; attempt < 10; attempt++ {
		targetArea := area * (minAreaScale + ft.prng.Float64()*(maxAreaScale-minAreaScale))
		ratio := math.Exp(logRatioLo + ft.prng.Float64()*(logRatioHi-logRatioLo))

		cw := int(math.Round(math.Sqrt(targetArea * ratio)))
		ch := int(math.Round(math.Sqrt(targetArea / ratio)))
		if cw <= 0 || ch <= 0 || cw > w || ch > h {
			continue
		}

		x0 := b.Min.X + ft.prng.Intn(w-cw+1)
		y0 := b.Min.Y + ft.prng.Intn(h-ch+1)
		crop := imaging.Crop(img, image.Rect(x0, y0, x0+cw, y0+ch))
		return imaging.Resize(crop, ft.size, ft.size, imaging.CatmullRom)
	}

	side := w
	if h < side {
		side = h
	}
	crop := imaging.CropCenter(img, side, side)
	return imaging.Resize(crop, ft.size, ft.size, imaging.CatmullRom)
}

const (
	minAreaScale = 0.1
	maxAreaScale = 0.9
)

// resizeShortest scales the shortest side to size preserving aspect ratio.
func resizeShortest(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= h {
		nh := int(math.Round(float64(h) * float64(size) / float64(w)))
		return imaging.Resize(img, size, nh, imaging.CatmullRom)
	}
	nw := int(math.Round(float64(w) * float64(size) / float64(h)))
	return imaging.Resize(img, nw, size, imaging.CatmullRom)
}
