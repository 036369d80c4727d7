// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build linux && !android

package vk

import (
	"os"
)

func platformSurfaceExts() []string {
	var exts []string
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		exts = append(exts, extWaylandSurfaceS)
	}
	if os.Getenv("DISPLAY") != "" {
		exts = append(exts, extXCBSurfaceS)
	}
	if len(exts) == 0 {
		exts = []string{extDisplayS}
	}
	return exts
}

func platformPortabilityExts() []string { return nil }
