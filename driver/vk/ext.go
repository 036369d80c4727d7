// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <stdlib.h>
// #include "proc.h"
import "C"

import (
	"unsafe"
)

// Instance extensions.
const (
	extSurfaceS                = "VK_KHR_surface"
	extDisplayS                = "VK_KHR_display"
	extAndroidSurfaceS         = "VK_KHR_android_surface"
	extWaylandSurfaceS         = "VK_KHR_wayland_surface"
	extWin32SurfaceS           = "VK_KHR_win32_surface"
	extXCBSurfaceS             = "VK_KHR_xcb_surface"
	extMetalSurfaceS           = "VK_EXT_metal_surface"
	extPortabilityEnumerationS = "VK_KHR_portability_enumeration"
	extDebugUtilsS             = "VK_EXT_debug_utils"
)

// SurfaceExtensions returns the instance extensions needed
// to present on the current platform, most preferred
// first. Which of them are advertised is not checked.
func SurfaceExtensions() []string {
	return append([]string{extSurfaceS}, platformSurfaceExts()...)
}

// PortabilityExtensions returns the instance extensions
// needed to enumerate portability implementations (e.g.,
// MoltenVK). It is empty where none is expected.
func PortabilityExtensions() []string {
	return platformPortabilityExts()
}

// instanceExts returns a list containing the names of all instance extensions
// advertised by the Vulkan implementation.
func instanceExts() (exts []string, err error) {
	const op = "vkEnumerateInstanceExtensionProperties"
	var n C.uint32_t
	if err = checkResult(op, C.vkEnumerateInstanceExtensionProperties(nil, &n, nil)); err != nil {
		return
	}
	if n == 0 {
		return
	}
	p := (*C.VkExtensionProperties)(C.malloc(C.sizeof_VkExtensionProperties * C.size_t(n)))
	defer C.free(unsafe.Pointer(p))
	if err = checkResult(op, C.vkEnumerateInstanceExtensionProperties(nil, &n, p)); err != nil {
		return
	}
	props := unsafe.Slice(p, n)
	exts = make([]string, n)
	for i, prop := range props {
		prop.extensionName[len(prop.extensionName)-1] = 0
		exts[i] = C.GoString(&prop.extensionName[0])
	}
	return
}

// instanceLayers returns a list containing the names of all instance layers
// installed.
func instanceLayers() (layers []string, err error) {
	const op = "vkEnumerateInstanceLayerProperties"
	var n C.uint32_t
	if err = checkResult(op, C.vkEnumerateInstanceLayerProperties(&n, nil)); err != nil {
		return
	}
	if n == 0 {
		return
	}
	p := (*C.VkLayerProperties)(C.malloc(C.sizeof_VkLayerProperties * C.size_t(n)))
	defer C.free(unsafe.Pointer(p))
	if err = checkResult(op, C.vkEnumerateInstanceLayerProperties(&n, p)); err != nil {
		return
	}
	props := unsafe.Slice(p, n)
	layers = make([]string, n)
	for i, prop := range props {
		prop.layerName[len(prop.layerName)-1] = 0
		layers[i] = C.GoString(&prop.layerName[0])
	}
	return
}

// cStrings creates an array of C strings that matches the contents of strs.
// Call the free closure to deallocate the array and C strings.
// If strs is empty, the array is nil.
func cStrings(strs []string) (arr **C.char, free func()) {
	if len(strs) == 0 {
		return nil, func() {}
	}
	arr = (**C.char)(C.malloc(C.size_t(unsafe.Sizeof(*arr)) * C.size_t(len(strs))))
	s := unsafe.Slice(arr, len(strs))
	for i, e := range strs {
		s[i] = C.CString(e)
	}
	free = func() {
		for _, cs := range s {
			C.free(unsafe.Pointer(cs))
		}
		C.free(unsafe.Pointer(arr))
	}
	return
}

func contains(from []string, name string) bool {
	for _, x := range from {
		if x == name {
			return true
		}
	}
	return false
}

// containsAll returns whether every element of names is in from.
func containsAll(from, names []string) bool {
	for _, n := range names {
		if !contains(from, n) {
			return false
		}
	}
	return true
}
