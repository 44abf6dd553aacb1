// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Transform spec string parsing.
//
// Subcommands accept the spatial transform as a compact spec string, for
// example:
//
//	resize=256 crop=224,224 random-crop seed=7
//
// Tokens are split shell-style so values can be quoted, then parsed as
// key=value pairs or bare flags.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evolution-gaming/clipprep/internal/transform"
	"github.com/google/shlex"
)

// parseTransformSpec parses a transform spec string into ResizerConfig.
func parseTransformSpec(spec string) (transform.ResizerConfig, error) {
	var cfg transform.ResizerConfig

	tokens, err := shlex.Split(spec)
	if err != nil {
		return cfg, fmt.Errorf("splitting transform spec: %w", err)
	}

	for _, tok := range tokens {
		key, val, hasVal := strings.Cut(tok, "=")
		switch key {
		case "resize":
			h, w, pair, err := parseSizeValue(val)
			if err != nil {
				return cfg, fmt.Errorf("transform spec %q: %w", tok, err)
			}
			if pair {
				cfg.Resize = transform.ResizeExact(h, w)
			} else {
				cfg.Resize = transform.ResizeShortest(h)
			}
		case "crop":
			h, w, pair, err := parseSizeValue(val)
			if err != nil {
				return cfg, fmt.Errorf("transform spec %q: %w", tok, err)
			}
			if pair {
				cfg.Crop = transform.CropExact(h, w)
			} else {
				cfg.Crop = transform.CropSquare(h)
			}
		case "random-crop":
			if hasVal {
				return cfg, fmt.Errorf("transform spec %q: flag takes no value", tok)
			}
			cfg.RandomCrop = true
		case "seed":
			seed, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("transform spec %q: %w", tok, err)
			}
			cfg.Seed = seed
		case "video-key":
			cfg.VideoKey = val
		case "height-key":
			cfg.HeightKey = val
		case "width-key":
			cfg.WidthKey = val
		default:
			return cfg, fmt.Errorf("transform spec: unknown token %q", tok)
		}
	}

	return cfg, nil
}

// parseSizeValue parses "256" (scalar) or "224,224" (height,width pair).
func parseSizeValue(val string) (h, w int, pair bool, err error) {
	parts := strings.Split(val, ",")
	switch len(parts) {
	case 1:
		h, err = parsePositive(parts[0])
		return h, h, false, err
	case 2:
		if h, err = parsePositive(parts[0]); err != nil {
			return 0, 0, false, err
		}
		if w, err = parsePositive(parts[1]); err != nil {
			return 0, 0, false, err
		}
		return h, w, true, nil
	default:
		return 0, 0, false, fmt.Errorf("want scalar or height,width pair, got %q", val)
	}
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", n)
	}
	return n, nil
}
