// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Consistent per-clip spatial transform.
//
// Resizer applies one geometric transform to every frame of a clip: resize
// target and crop window placement are computed once per sample and reused for
// all frames, so that the frames of one clip stay spatially aligned. Crop
// placement randomness comes from a per-instance seeded generator, repeated
// runs with the same seed reproduce identical crops.

package transform

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/evolution-gaming/clipprep/internal/logging"
	"github.com/evolution-gaming/clipprep/internal/sample"
	"github.com/evolution-gaming/clipprep/internal/tensor"
)

var (
	// ErrSizeTooSmall is returned when the post-resize frame cannot fit the
	// requested crop window.
	ErrSizeTooSmall = errors.New("video size not large enough, consider reducing resize or crop size")
	// ErrCropExceedsResize is returned when the crop window is larger than the
	// resolved resize target.
	ErrCropExceedsResize = errors.New("resize size must be greater or equal than crop size")
)

// Size is a (height, width) pair.
type Size struct {
	H int
	W int
}

// Resize describes the resize target: either Exact dimensions or Shortest,
// which scales the shortest side to the given value preserving aspect ratio.
// Exactly one of the two is set.
type Resize struct {
	Shortest int
	Exact    *Size
}

// ResizeShortest resizes so that the shortest side becomes n.
func ResizeShortest(n int) *Resize {
	return &Resize{Shortest: n}
}

// ResizeExact resizes to exactly h x w.
func ResizeExact(h, w int) *Resize {
	return &Resize{Exact: &Size{H: h, W: w}}
}

// CropSquare crops an n x n window.
func CropSquare(n int) *Size {
	return &Size{H: n, W: n}
}

// CropExact crops an h x w window.
func CropExact(h, w int) *Size {
	return &Size{H: h, W: w}
}

// ResizerConfig exposes parameters for Resizer creation.
type ResizerConfig struct {
	// Resize target, nil disables resizing.
	Resize *Resize
	// Crop window size, nil disables cropping.
	Crop *Size
	// RandomCrop draws the crop placement from the seeded generator instead of
	// using the frame center. Only meaningful together with Crop.
	RandomCrop bool
	// Seed for the crop placement generator.
	Seed int64
	// Sample field keys. Zero values fall back to the usual loader keys.
	VideoKey  string
	HeightKey string
	WidthKey  string
}

// Resizer is the per-clip consistent spatial transform.
//
// A Resizer owns mutable PRNG state and is not safe for concurrent use, the
// embedding pipeline is expected to hold one instance per worker.
type Resizer struct {
	cfg  ResizerConfig
	prng *rand.Rand
}

// NewResizer creates a Resizer from given config.
func NewResizer(cfg ResizerConfig) *Resizer {
	if cfg.VideoKey == "" {
		cfg.VideoKey = "mp4"
	}
	if cfg.HeightKey == "" {
		cfg.HeightKey = "original_height"
	}
	if cfg.WidthKey == "" {
		cfg.WidthKey = "original_width"
	}
	// Random crop without a crop window is a no-op, normalize the flag.
	if cfg.Crop == nil {
		cfg.RandomCrop = false
	}

	switch {
	case cfg.Resize != nil && cfg.Crop != nil:
		logging.Infof("Resizer resizing video to %s and %s cropping to %dx%d afterwards",
			cfg.Resize, cropKind(cfg.RandomCrop), cfg.Crop.H, cfg.Crop.W)
	case cfg.Resize != nil:
		logging.Infof("Resizer resizing video to %s", cfg.Resize)
	case cfg.Crop != nil:
		logging.Infof("Resizer %s cropping video to %dx%d",
			cropKind(cfg.RandomCrop), cfg.Crop.H, cfg.Crop.W)
	default:
		logging.Warn("Resizer is not resizing or cropping videos, is this intended?")
	}

	return &Resizer{cfg: cfg}
}

func cropKind(random bool) string {
	if random {
		return "random"
	}
	return "center"
}

// String describes the resize target in logs.
func (r *Resize) String() string {
	if r.Exact != nil {
		return fmt.Sprintf("%dx%d", r.Exact.H, r.Exact.W)
	}
	return fmt.Sprintf("shortest side %d", r.Shortest)
}

// rng lazily creates the seeded generator on first use.
func (r *Resizer) rng() *rand.Rand {
	if r.prng == nil {
		r.prng = rand.New(rand.NewSource(r.cfg.Seed))
	}
	return r.prng
}

// randInRange draws a uniform integer from [lo, hi).
func (r *Resizer) randInRange(lo, hi int) (int, error) {
	if hi <= lo {
		return 0, fmt.Errorf("empty range [%d, %d): %w", lo, hi, ErrSizeTooSmall)
	}
	return lo + r.rng().Intn(hi-lo), nil
}

// Process transforms the sample's video field in place and returns the sample.
//
// With neither resize nor crop configured this is the identity path: a frame
// slice is stacked into a raw tensor, anything else passes through untouched.
// Otherwise every frame is resized and cropped with the clip-wide parameters,
// rescaled from [0,255] to [-1,1) and the stack is cast to half precision.
func (r *Resizer) Process(s sample.Sample) (sample.Sample, error) {
	if r.cfg.Resize == nil && r.cfg.Crop == nil {
		frames, err := sample.Frames(s, r.cfg.VideoKey)
		if err != nil {
			// Identity path passes through whatever is there.
			return s, nil
		}
		v, err := tensor.FromImages(frames)
		if err != nil {
			return nil, fmt.Errorf("Process() stacking frames: %w", err)
		}
		s[r.cfg.VideoKey] = v
		return s, nil
	}

	if _, ok := s[r.cfg.VideoKey]; !ok {
		return nil, fmt.Errorf("Process() video field %q: %w", r.cfg.VideoKey, sample.ErrMissingField)
	}
	frames, err := sample.Frames(s, r.cfg.VideoKey)
	if err != nil {
		return nil, fmt.Errorf("Process(): %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("Process() empty clip in field %q", r.cfg.VideoKey)
	}

	// Original pre-decode dimensions drive the scale factor for the
	// shortest-side resize form. Frame dimensions are the same across a clip,
	// so metadata is read once.
	origH, err := sample.FirstInt(s, r.cfg.HeightKey)
	if err != nil {
		return nil, fmt.Errorf("Process(): %w", err)
	}
	origW, err := sample.FirstInt(s, r.cfg.WidthKey)
	if err != nil {
		return nil, fmt.Errorf("Process(): %w", err)
	}

	target, h, w := r.resizeTarget(frames[0], origH, origW)
	ref, err := r.reference(target, h, w)
	if err != nil {
		return nil, fmt.Errorf("Process(): %w", err)
	}

	outH, outW := h, w
	if r.cfg.Crop != nil {
		outH, outW = r.cfg.Crop.H, r.cfg.Crop.W
	}
	out := tensor.New([4]int{len(frames), outH, outW, 3})

	for t, frame := range frames {
		img := frame
		if target != nil {
			// imaging takes (width, height) order.
			img = imaging.Resize(img, target.W, target.H, imaging.Lanczos)
		}
		if r.cfg.Crop != nil {
			// Offsets round half to even so an odd crop filling the frame
			// exactly still yields a window inside the bounds.
			x0 := ref.W - int(math.RoundToEven(float64(r.cfg.Crop.W)/2))
			y0 := ref.H - int(math.RoundToEven(float64(r.cfg.Crop.H)/2))
			img = imaging.Crop(img, image.Rect(x0, y0, x0+r.cfg.Crop.W, y0+r.cfg.Crop.H))
		}
		if err := rescaleInto(out, t, img); err != nil {
			return nil, fmt.Errorf("Process() frame %d: %w", t, err)
		}
	}

	s[r.cfg.VideoKey] = out.ToHalf()
	return s, nil
}

// resizeTarget resolves the configured resize into concrete dimensions and
// reports post-resize (h, w).
func (r *Resizer) resizeTarget(first image.Image, origH, origW int) (target *Size, h, w int) {
	switch {
	case r.cfg.Resize == nil:
		b := first.Bounds()
		return nil, b.Dy(), b.Dx()
	case r.cfg.Resize.Exact != nil:
		t := *r.cfg.Resize.Exact
		return &t, t.H, t.W
	default:
		shortest := origH
		if origW < shortest {
			shortest = origW
		}
		f := float64(r.cfg.Resize.Shortest) / float64(shortest)
		t := Size{
			H: int(math.RoundToEven(float64(origH) * f)),
			W: int(math.RoundToEven(float64(origW) * f)),
		}
		return &t, t.H, t.W
	}
}

// reference computes the clip-wide crop center for post-resize dimensions
// (h, w). It is the only place randomness enters the transform.
func (r *Resizer) reference(target *Size, h, w int) (Size, error) {
	if r.cfg.Crop == nil || !r.cfg.RandomCrop {
		return Size{H: h / 2, W: w / 2}, nil
	}

	if target != nil && (r.cfg.Crop.H > target.H || r.cfg.Crop.W > target.W) {
		return Size{}, fmt.Errorf("crop %dx%d vs resize %dx%d: %w",
			r.cfg.Crop.H, r.cfg.Crop.W, target.H, target.W, ErrCropExceedsResize)
	}

	y, err := r.randAxis(r.cfg.Crop.H, h)
	if err != nil {
		return Size{}, err
	}
	x, err := r.randAxis(r.cfg.Crop.W, w)
	if err != nil {
		return Size{}, err
	}
	return Size{H: y, W: x}, nil
}

// randAxis draws the crop center along one axis such that the crop window fits
// inside the dimension.
func (r *Resizer) randAxis(crop, dim int) (int, error) {
	min := (crop + 1) / 2
	max := dim - min
	if min == max {
		// Crop fills the axis exactly, avoid a degenerate empty range.
		if max+1 < dim {
			max++
		} else {
			max = dim
		}
	}
	return r.randInRange(min, max)
}

// rescaleInto maps 8-bit channel values into [-1,1) and writes frame t.
func rescaleInto(out *tensor.Video, t int, img image.Image) error {
	b := img.Bounds()
	if b.Dy() != out.Shape[1] || b.Dx() != out.Shape[2] {
		return fmt.Errorf("transformed frame size %dx%d, want %dx%d",
			b.Dx(), b.Dy(), out.Shape[2], out.Shape[1])
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(img)
	}
	nb := nrgba.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := nrgba.Pix[nrgba.PixOffset(nb.Min.X, nb.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4:]
			out.Set(t, y, x, 0, float32(px[0])/127.5-1)
			out.Set(t, y, x, 1, float32(px[1])/127.5-1)
			out.Set(t, y, x, 2, float32(px[2])/127.5-1)
		}
	}
	return nil
}
