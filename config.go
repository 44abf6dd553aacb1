// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application configuration structures.

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evolution-gaming/clipprep/internal/logging"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")

	defaultTransformSpec = "resize=256 crop=224"
	defaultOutFile       = "clip.npy"
	defaultPlotFile      = "clip.png"
)

// Config represent application configuration.
type Config struct {
	TransformSpec ConfigVal[string] `json:"transform_spec,omitempty"`
	FrameSize     ConfigVal[int]    `json:"frame_size,omitempty"`
	FrameCount    ConfigVal[int]    `json:"frame_count,omitempty"`
	FrameStride   ConfigVal[int]    `json:"frame_stride,omitempty"`
	OutFileName   ConfigVal[string] `json:"out_file_name,omitempty"`
	PlotFileName  ConfigVal[string] `json:"plot_file_name,omitempty"`
}

// Verify will check that configuration is valid.
//
// Will check that configuration option values are sensible.
func (c *Config) Verify() error {
	msgs := []string{}

	if c.TransformSpec.IsNil() {
		msgs = append(msgs, "empty transform spec")
	} else if _, err := parseTransformSpec(c.TransformSpec.Value()); err != nil {
		msgs = append(msgs, fmt.Sprintf("bad transform spec (%s)", err))
	}
	if c.FrameSize.Value() <= 0 {
		msgs = append(msgs, "frame size must be positive")
	}
	if c.FrameCount.Value() <= 0 {
		msgs = append(msgs, "frame count must be positive")
	}
	if c.FrameStride.Value() <= 0 {
		msgs = append(msgs, "frame stride must be positive")
	}
	if c.OutFileName.IsNil() {
		msgs = append(msgs, "empty output file name")
	}
	if c.PlotFileName.IsNil() {
		msgs = append(msgs, "empty plot file name")
	}

	if len(msgs) != 0 {
		return fmt.Errorf("%s: %w", strings.Join(msgs, ", "), ErrInvalidConfig)
	}
	return nil
}

// OverrideFrom will overwrite fields from given Config object.
//
// Only fields that are "not-nil" (as per IsNil() method) in src Config object will be
// overwritten.
func (c *Config) OverrideFrom(src Config) {
	if !src.TransformSpec.IsNil() {
		c.TransformSpec = src.TransformSpec
	}
	if !src.FrameSize.IsNil() {
		c.FrameSize = src.FrameSize
	}
	if !src.FrameCount.IsNil() {
		c.FrameCount = src.FrameCount
	}
	if !src.FrameStride.IsNil() {
		c.FrameStride = src.FrameStride
	}
	if !src.OutFileName.IsNil() {
		c.OutFileName = src.OutFileName
	}
	if !src.PlotFileName.IsNil() {
		c.PlotFileName = src.PlotFileName
	}
}

// loadDefaultConfig will create a default configuration.
func loadDefaultConfig() Config {
	return Config{
		TransformSpec: NewConfigVal(defaultTransformSpec),
		FrameSize:     NewConfigVal(224),
		FrameCount:    NewConfigVal(8),
		FrameStride:   NewConfigVal(1),
		OutFileName:   NewConfigVal(defaultOutFile),
		PlotFileName:  NewConfigVal(defaultPlotFile),
	}
}

// loadConfigFromFile will load configuration from file.
//
// Only JSON is supported at this point.
func loadConfigFromFile(f string) (cfg Config, err error) {
	fileExt := strings.ToLower(filepath.Ext(f))
	switch fileExt {
	case ".json":
		return loadJSON(f)
	default:
		return cfg, fmt.Errorf("unknown config format: %s", fileExt)
	}
}

// LoadConfig will return merged default config and config from file. This is main
// function to use for config loading. Configuration file is optional e.g. can be "".
func LoadConfig(configFile string) (cfg Config, err error) {
	// Initialize default configuration.
	cfg = loadDefaultConfig()

	// Load configuration from file and override default configuration options.
	if configFile != "" {
		c, err := loadConfigFromFile(configFile)
		if err != nil {
			return cfg, err
		}
		// Configuration file can specify full set or partial set of configuration
		// options. So we only want to override those options that have been specified in
		// config file, rest will remain as per default config.
		cfg.OverrideFrom(c)
	}

	return cfg, nil
}

func loadJSON(f string) (cfg Config, err error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return cfg, fmt.Errorf("config from JSON file: %w", err)
	}

	if len(b) == 0 {
		return cfg, fmt.Errorf("JSON file is empty: %w", ErrInvalidConfig)
	}

	if err = json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config from JSON document: %w", err)
	}

	return cfg, nil
}

// In order to support Config overriding we have to implement wrapper type for Config
// fields. Otherwise it is hard to distinguish skipped fields, for instance when loading
// partial configuration from file: in that case it would be impossible to  distinguish
// between say string fields zero value and empty string values as explicitly specified in
// configuration file.

// NewConfigVal is constructor for ConfigVal. It will wrap its argument into ConfigVal.
func NewConfigVal[T any](v T) ConfigVal[T] {
	return ConfigVal[T]{v: &v}
}

// ConfigVal is a wrapper for Config field value.
type ConfigVal[T any] struct {
	// Store wrapped value as pointer in order to have ability to distinguish between
	// unspecified ConfigVal and a value that is the same as zero value for wrapped type.
	// In this case a zero value for pointer is nil.
	//
	// For example a zero value for string is "" which is impossible to distinguish from
	// explicit empty string "".
	v *T
}

// Value will return wrapped value.
//
// In case field has not been defined e.g. is zero value, then appropriate zero value of
// wrapped typw will be returned.
func (o *ConfigVal[T]) Value() T {
	if o.IsNil() {
		var v T
		return v
	}
	return *o.v
}

// IsNil check if wrapped value is nil.
func (o *ConfigVal[T]) IsNil() bool {
	// Zero value for pointer type is nil.
	return o.v == nil
}

// UnmarshalJSON implements json.Unmarshaler interface for ConfigVal.
func (o *ConfigVal[T]) UnmarshalJSON(b []byte) error {
	var val T
	err := json.Unmarshal(b, &val)
	if err != nil {
		return err
	}
	o.v = &val
	return nil
}

// MarshalJSON implements json.Marshaler interface for ConfigVal.
func (o ConfigVal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value())
}

// Also define command "dump-conf" here.

// Make sure App implements Commander interface.
var _ Commander = (*DumpConfApp)(nil)

// DumpConfApp is subcommand application context that implements Commander interface.
// Although this is very simple application, but for consistency sake it is implemented in
// similar style as other subcommands.
type DumpConfApp struct {
	out io.Writer
	fs  *flag.FlagSet
	gf  globalFlags
}

func CreateDumpConfCommand() *DumpConfApp {
	longHelp := `Command "dump-conf" will print actual application configuration taking into account
configuration file provided and default configuration values.

Examples:

	clipprep dump-conf
	clipprep dump-conf -conf path/to/config.json`

	app := &DumpConfApp{
		fs:  flag.NewFlagSet("dump-conf", flag.ContinueOnError),
		gf:  globalFlags{},
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}

	return app
}

func (d *DumpConfApp) Name() string {
	return d.fs.Name()
}

func (d *DumpConfApp) Help() {
	d.fs.Usage()
}

// Run is main entry point into DumpConfApp execution.
func (d *DumpConfApp) Run(args []string) error {
	if err := d.fs.Parse(args); err != nil {
		return &AppError{
			exitCode: 2,
			msg:      "usage error",
		}
	}

	if d.gf.Debug {
		logging.EnableDebugLogger()
	}

	// Load application configuration.
	cfg, err := LoadConfig(d.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	enc := json.NewEncoder(d.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	// Also, report if configuration is valid.
	if err := cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}

	return nil
}
