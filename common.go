// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable parts of clipprep application and subcommand infrastructure.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evolution-gaming/clipprep/internal/sample"
)

// Commander interface should be implemented by commands and sub-commands.
type Commander interface {
	Run([]string) error
	Name() string
	Help()
}

// AppError a custom error returned from CLI application.
//
// AppError is handy error type envisioned to be used in CLI's main.
// ExitCode() should be used as argument for os.Exit().
type AppError struct {
	msg      string
	exitCode int
}

// Error implements error interface for AppError.
func (e *AppError) Error() string {
	return e.msg
}

// ExitCode returns CLI application's exit code.
func (e *AppError) ExitCode() int {
	return e.exitCode
}

// printSubCommandUsage helper to format and print subcommand's usage.
func printSubCommandUsage(longHelp string, fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage of sub-command %s:\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "%s\n\n", longHelp)
	fs.PrintDefaults()
}

// loadFrames reads decoded clip frames from a directory.
//
// Frames are PNG or JPEG files, clip order is the lexical order of the file
// names.
func loadFrames(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frames directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no frame images in %s", dir)
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		fd, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("opening frame %s: %w", name, err)
		}
		img, _, err := image.Decode(fd)
		fd.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding frame %s: %w", name, err)
		}
		frames = append(frames, img)
	}

	return frames, nil
}

// frameSample builds a loader-shaped sample from decoded frames.
//
// origH and origW override the pre-decode dimensions metadata, zero values
// fall back to the actual first frame dimensions.
func frameSample(frames []image.Image, origH, origW int) sample.Sample {
	b := frames[0].Bounds()
	if origH == 0 {
		origH = b.Dy()
	}
	if origW == 0 {
		origW = b.Dx()
	}
	return sample.Sample{
		"mp4":             frames,
		"original_height": []int{origH},
		"original_width":  []int{origW},
	}
}

// rekeyVideo moves the video field when a transform spec addresses it under a
// key other than the loader default.
func rekeyVideo(s sample.Sample, videoKey string) {
	if videoKey != "" && videoKey != "mp4" {
		s[videoKey] = s["mp4"]
		delete(s, "mp4")
	}
}
