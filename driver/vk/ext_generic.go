// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !linux && !android && !windows && !darwin

package vk

func platformSurfaceExts() []string {
	return []string{extXCBSurfaceS}
}

func platformPortabilityExts() []string { return nil }
