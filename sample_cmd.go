// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// clipprep tool's sample subcommand implementation.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/evolution-gaming/clipprep/internal/logging"
	"github.com/evolution-gaming/clipprep/internal/npy"
	"github.com/evolution-gaming/clipprep/internal/tensor"
	"github.com/evolution-gaming/clipprep/internal/transform"
)

// Make sure SampleApp implements Commander interface.
var _ Commander = (*SampleApp)(nil)

// SampleApp is sample subcommand context that implements Commander interface.
type SampleApp struct {
	// Configuration object
	cfg *Config
	// FlagSet instance
	fs *flag.FlagSet
	// Input frames directory
	flInDir string
	// Output NPY file
	flOutFile string
	// Output frame side, frame count and temporal stride
	flSize   int
	flFrames int
	flStride int
	// Train selects the augmenting photometric pipeline
	flTrain bool
	// Seed for the augmentation generator
	flSeed int64
	// Global flags
	gf globalFlags
}

// CreateSampleCommand will create Commander instance from SampleApp.
func CreateSampleCommand() Commander {
	longHelp := `Subcommand "sample" will temporally subsample a clip to a fixed frame count and
run every frame through the photometric pipeline.

Frames are strided, truncated and zero-padded to the exact frame count, then
resized, cropped, converted to 3-channel color and normalized. The result is a
float32 NPY tensor in (frame, channel, height, width) layout.

Examples:

  clipprep sample -i frames/ -o clip.npy -size 224 -frames 8 -stride 2
  clipprep sample -i frames/ -train -seed 7`

	app := &SampleApp{
		fs: flag.NewFlagSet("sample", flag.ContinueOnError),
		gf: globalFlags{},
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flInDir, "i", "", "Input frames directory (mandatory)")
	app.fs.StringVar(&app.flOutFile, "o", "", "Output NPY file")
	app.fs.IntVar(&app.flSize, "size", 0, "Output frame side (default: from configuration)")
	app.fs.IntVar(&app.flFrames, "frames", 0, "Exact output frame count (default: from configuration)")
	app.fs.IntVar(&app.flStride, "stride", 0, "Temporal stride, keep every Nth frame (default: from configuration)")
	app.fs.BoolVar(&app.flTrain, "train", false, "Use the augmenting (random resized crop) pipeline")
	app.fs.Int64Var(&app.flSeed, "seed", 0, "Seed for the augmentation generator")

	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}
	return app
}

func (a *SampleApp) Name() string {
	return a.fs.Name()
}

func (a *SampleApp) Help() {
	a.fs.Usage()
}

// init will do App state initialization.
func (a *SampleApp) init(args []string) error {
	if err := a.fs.Parse(args); err != nil {
		return &AppError{
			exitCode: 2,
			msg:      fmt.Sprintf("%s usage error", a.Name()),
		}
	}

	if a.gf.Debug {
		logging.EnableDebugLogger()
	}

	// Load application configuration.
	c, err := LoadConfig(a.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	a.cfg = &c

	// Check if configuration is valid.
	if err := a.cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}

	if a.flInDir == "" {
		a.Help()
		return &AppError{
			exitCode: 2,
			msg:      "mandatory option -i is missing",
		}
	}
	if a.flOutFile == "" {
		a.flOutFile = a.cfg.OutFileName.Value()
	}
	if a.flSize == 0 {
		a.flSize = a.cfg.FrameSize.Value()
	}
	if a.flFrames == 0 {
		a.flFrames = a.cfg.FrameCount.Value()
	}
	if a.flStride == 0 {
		a.flStride = a.cfg.FrameStride.Value()
	}

	return nil
}

// Run is main entry point into SampleApp execution.
func (a *SampleApp) Run(args []string) error {
	if err := a.init(args); err != nil {
		return err
	}

	ts, err := transform.NewTemporalSampler(transform.SamplerConfig{
		FrameSize:    a.flSize,
		FrameCount:   a.flFrames,
		TakeEveryNth: a.flStride,
		Train:        a.flTrain,
		Seed:         a.flSeed,
	})
	if err != nil {
		return &AppError{exitCode: 2, msg: err.Error()}
	}

	frames, err := loadFrames(a.flInDir)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	logging.Infof("Loaded %d frames from %s", len(frames), a.flInDir)

	clip, err := tensor.FromImages(frames)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	out, err := ts.Apply(clip)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	logging.Infof("Sampled clip tensor shape %v", out.Shape)

	fd, err := os.Create(a.flOutFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	defer fd.Close()

	if err := npy.WriteFloat32(fd, out); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	logging.Infof("Output written to:\n\t%s", a.flOutFile)
	return nil
}
