// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Aggregate statistics over preprocessed clip tensors.

package analysis

import (
	"fmt"

	"github.com/evolution-gaming/clipprep/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds aggregate statistics of a value vector.
type Summary struct {
	Mean  float64
	StDev float64
	Min   float64
	Max   float64
}

// Summarize computes aggregate statistics for given values.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("Summarize() no values")
	}
	var s Summary
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean, s.StDev = stat.MeanStdDev(values, nil)
	return s, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("mean=%.4f stdev=%.4f min=%.4f max=%.4f", s.Mean, s.StDev, s.Min, s.Max)
}

// FrameMeans reduces a 4D clip tensor to one mean value per leading-axis
// frame.
func FrameMeans(v *tensor.Video) []float64 {
	t := v.Shape[0]
	if t == 0 {
		return nil
	}
	frameLen := len(v.Data) / t
	means := make([]float64, t)
	frame := make([]float64, frameLen)
	for i := 0; i < t; i++ {
		for j, f := range v.Data[i*frameLen : (i+1)*frameLen] {
			frame[j] = float64(f)
		}
		means[i] = stat.Mean(frame, nil)
	}
	return means
}

// Flatten widens the full tensor payload into a float64 vector.
func Flatten(v *tensor.Video) []float64 {
	out := make([]float64, len(v.Data))
	for i, f := range v.Data {
		out[i] = float64(f)
	}
	return out
}
