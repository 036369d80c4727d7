// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

func platformSurfaceExts() []string {
	return []string{extWin32SurfaceS}
}

func platformPortabilityExts() []string { return nil }
