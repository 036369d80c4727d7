// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

// #include <stdint.h>
import "C"

import (
	"runtime/cgo"

	"github.com/gviegas/graphrunner/driver"
)

// VkDebugUtilsMessageSeverityFlagBitsEXT values.
const (
	vkSeverityVerbose = 0x1
	vkSeverityInfo    = 0x10
	vkSeverityWarning = 0x100
	vkSeverityError   = 0x1000
)

var severityBits = [...]struct {
	drv driver.Severity
	vk  uint32
}{
	{driver.SeverityVerbose, vkSeverityVerbose},
	{driver.SeverityInfo, vkSeverityInfo},
	{driver.SeverityWarning, vkSeverityWarning},
	{driver.SeverityError, vkSeverityError},
}

// convSeverity converts a driver.Severity mask into a
// VkDebugUtilsMessageSeverityFlagsEXT mask.
func convSeverity(s driver.Severity) (flags uint32) {
	for _, b := range severityBits {
		if s&b.drv != 0 {
			flags |= b.vk
		}
	}
	return
}

// severityFromVk is the inverse of convSeverity.
func severityFromVk(flags uint32) (s driver.Severity) {
	for _, b := range severityBits {
		if flags&b.vk != 0 {
			s |= b.drv
		}
	}
	return
}

// The general/validation/performance bits of
// VkDebugUtilsMessageTypeFlagsEXT match driver.MessageType.
const typeMask = driver.TypeGeneral | driver.TypeValidation | driver.TypePerformance

//export goDebugCallback
func goDebugCallback(sev, typ C.uint32_t, id C.int32_t, name, text *C.char, user C.uintptr_t) {
	if user == 0 {
		return
	}
	f, ok := cgo.Handle(user).Value().(func(driver.Message))
	if !ok || f == nil {
		return
	}
	f(driver.Message{
		Severity: severityFromVk(uint32(sev)),
		Type:     driver.MessageType(typ) & typeMask,
		IDNumber: int32(id),
		IDName:   C.GoString(name),
		Text:     C.GoString(text),
	})
}
