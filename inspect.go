// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// clipprep tool's inspect subcommand implementation.

package main

import (
	"flag"
	"fmt"
	"path"
	"strings"

	"github.com/evolution-gaming/clipprep/internal/analysis"
	"github.com/evolution-gaming/clipprep/internal/logging"
	"github.com/evolution-gaming/clipprep/internal/tensor"
	"github.com/evolution-gaming/clipprep/internal/transform"
)

// Make sure InspectApp implements Commander interface.
var _ Commander = (*InspectApp)(nil)

// InspectApp is inspect subcommand context that implements Commander interface.
type InspectApp struct {
	// Configuration object
	cfg *Config
	// FlagSet instance
	fs *flag.FlagSet
	// Input frames directory
	flInDir string
	// Plot output file
	flOutFile string
	// Transform spec string, overrides configuration
	flSpec string
	// Global flags
	gf globalFlags
}

// CreateInspectCommand will create Commander instance from InspectApp.
func CreateInspectCommand() Commander {
	longHelp := `Subcommand "inspect" will run the configured spatial transform over a clip and
create plots of the resulting value distribution: per-frame mean level,
histogram and CDF. Useful for eyeballing whether normalization and crop
placement behave as expected.

Examples:

  clipprep inspect -i frames/ -o clip.png
  clipprep inspect -i frames/ -spec 'resize=256 crop=224 random-crop'`

	app := &InspectApp{
		fs: flag.NewFlagSet("inspect", flag.ContinueOnError),
		gf: globalFlags{},
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flInDir, "i", "", "Input frames directory (mandatory)")
	app.fs.StringVar(&app.flOutFile, "o", "", "File to save plot to")
	app.fs.StringVar(&app.flSpec, "spec", "", "Transform spec string, overrides configuration")

	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}
	return app
}

func (a *InspectApp) Name() string {
	return a.fs.Name()
}

func (a *InspectApp) Help() {
	a.fs.Usage()
}

// Run is main entry point into InspectApp execution.
func (a *InspectApp) Run(args []string) error {
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
	if a.flSpec == "" {
		a.flSpec = a.cfg.TransformSpec.Value()
	}
	if a.flOutFile == "" {
		base := path.Base(strings.TrimRight(a.flInDir, "/"))
		a.flOutFile = base + ".png"
	}

	logging.Infof("Output will be written to:\n\t%s\n", a.flOutFile)

	if err := inspectClip(a.flInDir, a.flSpec, a.flOutFile); err != nil {
		return &AppError{
			exitCode: 1,
			msg:      err.Error(),
		}
	}

	return nil
}

func inspectClip(inDir, spec, plotFile string) error {
	rCfg, err := parseTransformSpec(spec)
	if err != nil {
		return err
	}

	frames, err := loadFrames(inDir)
	if err != nil {
		return err
	}

	s := frameSample(frames, 0, 0)
	rekeyVideo(s, rCfg.VideoKey)
	out, err := transform.NewResizer(rCfg).Process(s)
	if err != nil {
		return fmt.Errorf("transforming clip: %w", err)
	}

	key := rCfg.VideoKey
	if key == "" {
		key = "mp4"
	}

	var v *tensor.Video
	switch tv := out[key].(type) {
	case *tensor.HalfVideo:
		v = tv.ToFloat32()
	case *tensor.Video:
		v = tv
	default:
		return fmt.Errorf("unexpected video field type %T", out[key])
	}

	values := analysis.Flatten(v)
	summary, err := analysis.Summarize(values)
	if err != nil {
		return err
	}
	logging.Infof("Clip value statistics: %s", summary)

	title := fmt.Sprintf("%s (%s)", path.Base(inDir), spec)
	if err := analysis.MultiPlotClip(analysis.FrameMeans(v), values, title, plotFile); err != nil {
		return fmt.Errorf("failed creating clip plots: %w", err)
	}

	return nil
}
