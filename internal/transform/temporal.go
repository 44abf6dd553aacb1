// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Temporal subsampling with fixed-length padding.

package transform

import (
	"fmt"
	"image"
	"math/rand"
	"strings"

	"github.com/evolution-gaming/clipprep/internal/tensor"
)

// Per-channel statistics of the dataset the usual downstream encoders were
// trained on. Applied when SamplerConfig leaves mean/std unset.
var (
	DefaultFrameMean = [3]float64{0.48145466, 0.4578275, 0.40821073}
	DefaultFrameStd  = [3]float64{0.26862954, 0.26130258, 0.27577711}
)

// SamplerConfigError describes SamplerConfig validation failures.
type SamplerConfigError struct {
	reasons []string
}

func (e *SamplerConfigError) Error() string {
	return "sampler config validation error: " + strings.Join(e.reasons, ", ")
}

func (e *SamplerConfigError) Reasons() []string {
	return e.reasons
}

// SamplerConfig exposes parameters for TemporalSampler creation.
type SamplerConfig struct {
	// Side of the square output frames.
	FrameSize int
	// Exact number of output frames, shorter clips are zero-padded.
	FrameCount int
	// Temporal stride, keep every Nth frame starting at index 0.
	TakeEveryNth int
	// Train selects the augmenting pipeline (random resized crop) instead of
	// the deterministic evaluation one.
	Train bool
	// Per-channel normalization mean/std. nil applies the dataset defaults, a
	// single value is broadcast to 3 channels.
	Mean []float64
	Std  []float64
	// Seed for the augmentation generator, train only.
	Seed int64
}

// TemporalSampler subsamples a clip to a fixed frame count and runs every kept
// frame through the photometric pipeline.
//
// Owns mutable PRNG state when training, one instance per worker.
type TemporalSampler struct {
	cfg SamplerConfig
	ft  frameTransform
}

// NewTemporalSampler validates config and creates a TemporalSampler.
func NewTemporalSampler(cfg SamplerConfig) (*TemporalSampler, error) {
	e := &SamplerConfigError{}
	if cfg.FrameSize <= 0 {
		e.reasons = append(e.reasons, "frame size must be positive")
	}
	if cfg.FrameCount <= 0 {
		e.reasons = append(e.reasons, "frame count must be positive")
	}
	if cfg.TakeEveryNth <= 0 {
		e.reasons = append(e.reasons, "temporal stride must be positive")
	}

	mean, err := broadcastStat(cfg.Mean, DefaultFrameMean)
	if err != nil {
		e.reasons = append(e.reasons, fmt.Sprintf("mean: %v", err))
	}
	std, err := broadcastStat(cfg.Std, DefaultFrameStd)
	if err != nil {
		e.reasons = append(e.reasons, fmt.Sprintf("std: %v", err))
	}
	for _, s := range std {
		if s == 0 {
			e.reasons = append(e.reasons, "std must be non-zero")
			break
		}
	}

	if len(e.reasons) != 0 {
		return nil, e
	}

	return &TemporalSampler{
		cfg: cfg,
		ft: frameTransform{
			size:  cfg.FrameSize,
			train: cfg.Train,
			mean:  mean,
			std:   std,
		},
	}, nil
}

// broadcastStat normalizes a mean/std spec to 3 channels.
func broadcastStat(v []float64, def [3]float64) ([3]float64, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 1:
		return [3]float64{v[0], v[0], v[0]}, nil
	case 3:
		return [3]float64{v[0], v[1], v[2]}, nil
	default:
		return [3]float64{}, fmt.Errorf("want 1 or 3 values, got %d", len(v))
	}
}

// Apply transforms a THWC clip into a TCHW tensor of exactly FrameCount
// normalized frames.
//
// Frames are strided by TakeEveryNth from index 0, truncated to FrameCount and
// zero-padded at the end when fewer remain. Padding happens before the
// photometric pipeline, so padded entries are black frames run through the
// same normalization as real ones.
func (ts *TemporalSampler) Apply(clip *tensor.Video) (*tensor.Video, error) {
	if clip == nil || clip.Shape[0] == 0 {
		return nil, fmt.Errorf("Apply() empty clip")
	}

	kept := make([]int, 0, clip.Shape[0])
	for i := 0; i < clip.Shape[0]; i += ts.cfg.TakeEveryNth {
		kept = append(kept, i)
	}
	if len(kept) > ts.cfg.FrameCount {
		kept = kept[:ts.cfg.FrameCount]
	}

	if ts.cfg.Train && ts.ft.prng == nil {
		ts.ft.prng = rand.New(rand.NewSource(ts.cfg.Seed))
	}

	h, w := clip.Shape[1], clip.Shape[2]
	out := tensor.New([4]int{ts.cfg.FrameCount, 3, ts.cfg.FrameSize, ts.cfg.FrameSize})
	frameLen := 3 * ts.cfg.FrameSize * ts.cfg.FrameSize

	var black *image.NRGBA
	for t := 0; t < ts.cfg.FrameCount; t++ {
		var frame image.Image
		if t < len(kept) {
			frame = clip.FrameImage(kept[t])
		} else {
			if black == nil {
				black = image.NewNRGBA(image.Rect(0, 0, w, h))
				opaque(black)
			}
			frame = black
		}

		img := ts.ft.spatial(frame)
		ts.ft.normalize(img, out.Data[t*frameLen:(t+1)*frameLen])
	}

	return out, nil
}

// opaque sets full alpha on a zeroed NRGBA so the padding frame is black, not
// transparent.
func opaque(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
