// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// clipprep tool's preprocess subcommand implementation.

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

// Make sure PreprocessApp implements Commander interface.
var _ Commander = (*PreprocessApp)(nil)

// PreprocessApp is preprocess subcommand context that implements Commander interface.
type PreprocessApp struct {
	// Configuration object
	cfg *Config
	// FlagSet instance
	fs *flag.FlagSet
	// Input frames directory
	flInDir string
	// Output NPY file
	flOutFile string
	// Transform spec string, overrides configuration
	flSpec string
	// Pre-decode original dimensions, fall back to actual frame dimensions
	flOrigHeight int
	flOrigWidth  int
	// Global flags
	gf globalFlags
}

// CreatePreprocessCommand will create Commander instance from PreprocessApp.
func CreatePreprocessCommand() Commander {
	longHelp := `Subcommand "preprocess" will run the consistent spatial transform over a clip.

Frames are read from the input directory (PNG/JPEG, lexical order), resized and
cropped with one clip-wide geometric transform, rescaled to [-1,1) and written
as a half-precision NPY tensor.

Examples:

  clipprep preprocess -i frames/ -o clip.npy
  clipprep preprocess -i frames/ -spec 'resize=256 crop=224,224 random-crop seed=7'`

	app := &PreprocessApp{
		fs: flag.NewFlagSet("preprocess", flag.ContinueOnError),
		gf: globalFlags{},
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flInDir, "i", "", "Input frames directory (mandatory)")
	app.fs.StringVar(&app.flOutFile, "o", "", "Output NPY file")
	app.fs.StringVar(&app.flSpec, "spec", "", "Transform spec string, overrides configuration")
	app.fs.IntVar(&app.flOrigHeight, "orig-height", 0, "Original pre-decode height (default: frame height)")
	app.fs.IntVar(&app.flOrigWidth, "orig-width", 0, "Original pre-decode width (default: frame width)")

	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}
	return app
}

func (a *PreprocessApp) Name() string {
	return a.fs.Name()
}

func (a *PreprocessApp) Help() {
	a.fs.Usage()
}

// init will do App state initialization.
func (a *PreprocessApp) init(args []string) error {
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
	if a.flSpec == "" {
		a.flSpec = a.cfg.TransformSpec.Value()
	}

	return nil
}

// Run is main entry point into PreprocessApp execution.
func (a *PreprocessApp) Run(args []string) error {
	if err := a.init(args); err != nil {
		return err
	}

	rCfg, err := parseTransformSpec(a.flSpec)
	if err != nil {
		return &AppError{exitCode: 2, msg: err.Error()}
	}

	frames, err := loadFrames(a.flInDir)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	logging.Infof("Loaded %d frames from %s", len(frames), a.flInDir)

	s := frameSample(frames, a.flOrigHeight, a.flOrigWidth)
	rekeyVideo(s, rCfg.VideoKey)

	out, err := transform.NewResizer(rCfg).Process(s)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	key := rCfg.VideoKey
	if key == "" {
		key = "mp4"
	}
	hv, ok := out[key].(*tensor.HalfVideo)
	if !ok {
		// Identity path produces a raw float tensor.
		if v, okRaw := out[key].(*tensor.Video); okRaw {
			return a.write(func(fd *os.File) error { return npy.WriteFloat32(fd, v) })
		}
		return &AppError{exitCode: 1, msg: fmt.Sprintf("unexpected video field type %T", out[key])}
	}

	logging.Infof("Preprocessed clip tensor shape %v", hv.Shape)
	return a.write(func(fd *os.File) error { return npy.WriteHalf(fd, hv) })
}

func (a *PreprocessApp) write(writeTensor func(*os.File) error) error {
	fd, err := os.Create(a.flOutFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	defer fd.Close()

	if err := writeTensor(fd); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	logging.Infof("Output written to:\n\t%s", a.flOutFile)
	return nil
}
