// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path"
	"testing"
)

// fixFramesDir fixture provides a directory with n PNG frames of given size.
//
// Frame i carries constant channel value i so frames stay identifiable after
// transforms.
func fixFramesDir(t *testing.T, n, w, h int) string {
	t.Helper()
	dir := t.TempDir()

	for i := 0; i < n; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		v := uint8(i * 10)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
			}
		}

		fd, err := os.Create(path.Join(dir, fmt.Sprintf("frame_%03d.png", i)))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := png.Encode(fd, img); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		fd.Close()
	}

	return dir
}

// fixConfigFile fixture provides a JSON configuration file with given payload.
func fixConfigFile(t *testing.T, payload []byte) (fPath string) {
	t.Helper()
	fPath = path.Join(t.TempDir(), "config.json")
	err := os.WriteFile(fPath, payload, fs.FileMode(0o644))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return
}
