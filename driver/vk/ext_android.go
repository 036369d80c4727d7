// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

func platformSurfaceExts() []string {
	return []string{extAndroidSurfaceS}
}

func platformPortabilityExts() []string { return nil }
