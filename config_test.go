// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application Config related tests.
package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadDefaultConfig(t *testing.T) {
	c := loadDefaultConfig()

	assert.NoError(t, c.Verify(), "Default configuration should be valid")
}

func Test_loadConfigFile(t *testing.T) {
	// For this case we do not strictly need config that is valid as per Config.Verify(),
	// just verify that loading configuration from file works.
	tests := map[string]struct {
		want  Config
		given []byte
	}{
		"Full": {
			given: []byte(`{
				"transform_spec": "resize=128 crop=112 random-crop",
				"frame_size": 112,
				"frame_count": 16,
				"frame_stride": 2,
				"out_file_name": "test_clip.npy",
				"plot_file_name": "test_clip.png"
			}`),
			want: Config{
				TransformSpec: NewConfigVal("resize=128 crop=112 random-crop"),
				FrameSize:     NewConfigVal(112),
				FrameCount:    NewConfigVal(16),
				FrameStride:   NewConfigVal(2),
				OutFileName:   NewConfigVal("test_clip.npy"),
				PlotFileName:  NewConfigVal("test_clip.png"),
			},
		},
		"Partial": {
			given: []byte(`{
				"transform_spec": "resize=128",
				"frame_count": 16
			}`),
			want: Config{
				TransformSpec: NewConfigVal("resize=128"),
				FrameCount:    NewConfigVal(16),
			},
		},
		"Empty JSON": {
			given: []byte(`{}`),
			want:  Config{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			confFile := fixConfigFile(t, tt.given)

			// Load config and assert contents are as expected.
			got, err := loadConfigFromFile(confFile)
			assert.NoError(t, err, "Should be no error loading configuration from file")

			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_loadConfigFile_Negative(t *testing.T) {
	tests := map[string]struct {
		want  string
		given []byte
	}{
		"Empty file":   {given: []byte(``), want: "JSON file is empty"},
		"Invalid JSON": {given: []byte(`{oops`), want: "config from JSON document"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			confFile := fixConfigFile(t, tt.given)

			_, err := loadConfigFromFile(confFile)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func Test_Config_Verify_Negative(t *testing.T) {
	tests := map[string]struct {
		modify func(c *Config)
		want   string
	}{
		"Empty transform spec": {
			modify: func(c *Config) { c.TransformSpec = ConfigVal[string]{} },
			want:   "empty transform spec",
		},
		"Bad transform spec": {
			modify: func(c *Config) { c.TransformSpec = NewConfigVal("bogus=1") },
			want:   "bad transform spec",
		},
		"Non-positive frame size": {
			modify: func(c *Config) { c.FrameSize = NewConfigVal(0) },
			want:   "frame size must be positive",
		},
		"Non-positive frame count": {
			modify: func(c *Config) { c.FrameCount = NewConfigVal(-1) },
			want:   "frame count must be positive",
		},
		"Non-positive frame stride": {
			modify: func(c *Config) { c.FrameStride = NewConfigVal(0) },
			want:   "frame stride must be positive",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := loadDefaultConfig()
			tt.modify(&cfg)

			err := cfg.Verify()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func Test_Config_OverrideFrom(t *testing.T) {
	fixBaseConf := func() Config {
		return Config{
			TransformSpec: NewConfigVal("resize=256 crop=224"),
			FrameSize:     NewConfigVal(224),
			FrameCount:    NewConfigVal(8),
			FrameStride:   NewConfigVal(1),
			OutFileName:   NewConfigVal("base_clip.npy"),
			PlotFileName:  NewConfigVal("base_clip.png"),
		}
	}

	tests := map[string]struct {
		want        Config
		overrideSrc Config
	}{
		"Full config overrides all fields": {
			overrideSrc: Config{
				TransformSpec: NewConfigVal("resize=128"),
				FrameSize:     NewConfigVal(112),
				FrameCount:    NewConfigVal(16),
				FrameStride:   NewConfigVal(2),
				OutFileName:   NewConfigVal("test_clip.npy"),
				PlotFileName:  NewConfigVal("test_clip.png"),
			},
			want: Config{
				TransformSpec: NewConfigVal("resize=128"),
				FrameSize:     NewConfigVal(112),
				FrameCount:    NewConfigVal(16),
				FrameStride:   NewConfigVal(2),
				OutFileName:   NewConfigVal("test_clip.npy"),
				PlotFileName:  NewConfigVal("test_clip.png"),
			},
		},
		"Partial config overrides partial fields": {
			overrideSrc: Config{
				TransformSpec: NewConfigVal("resize=128"),
				FrameCount:    NewConfigVal(16),
			},
			want: Config{
				// Overridden fields.
				TransformSpec: NewConfigVal("resize=128"),
				FrameCount:    NewConfigVal(16),
				// Unmodified fields.
				FrameSize:    NewConfigVal(224),
				FrameStride:  NewConfigVal(1),
				OutFileName:  NewConfigVal("base_clip.npy"),
				PlotFileName: NewConfigVal("base_clip.png"),
			},
		},
		"Empty config does not override any fields": {
			overrideSrc: Config{},
			want:        fixBaseConf(),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Create a base Config object. This is the Config that we shall attempt to
			// override.
			given := fixBaseConf()

			// Attempt to override config from overrideSrc.
			given.OverrideFrom(tt.overrideSrc)

			assert.Equal(t, tt.want, given)
		})
	}
}

func Test_DumpConfApp_Run(t *testing.T) {
	commandOutput := &bytes.Buffer{}
	// This is one option we try to make sure is in dumped config file.
	want := `"out_file_name": "test_clip.npy"`

	confFile := fixConfigFile(t, []byte("{"+want+"}"))

	cmd := CreateDumpConfCommand()

	// Redirect output to buffer
	cmd.out = commandOutput

	err := cmd.Run([]string{"-conf", confFile})
	require.NoError(t, err, "Unexpected error running dump-conf")
	// Check that config dump contains options we specified in config file.
	assert.Contains(t, commandOutput.String(), want)
}
