// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !notest

package vk

// #include <stdlib.h>
// #include "proc.h"
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gviegas/graphrunner/driver"
)

// checkCStrings checks if a string slice matches a C string array.
// It assumes that the C array, if non-nil, contains len(strs) C strings.
func checkCStrings(strs []string, cstrs unsafe.Pointer) error {
	if cstrs == nil {
		if len(strs) == 0 {
			return nil
		}
		return fmt.Errorf("checkCStrings(%v, %v): unexpected nil C array", strs, cstrs)
	}
	css := unsafe.Slice((**C.char)(cstrs), len(strs))
	for i := range strs {
		if s := C.GoString(css[i]); s != strs[i] {
			return fmt.Errorf("checkCStrings(%v, %v): string mismatch at %d: %q", strs, cstrs, i, s)
		}
	}
	return nil
}

// cStringsArray calls cStrings and returns the array as
// an unsafe.Pointer.
func cStringsArray(strs []string) (unsafe.Pointer, func()) {
	arr, free := cStrings(strs)
	return unsafe.Pointer(arr), free
}

// checkProcOpen checks that C.getInstanceProcAddr is not nil.
func checkProcOpen() error {
	if C.getInstanceProcAddr == nil {
		return errors.New("checkProcOpen: C.getInstanceProcAddr is nil")
	}
	return nil
}

// checkProcGlobal checks the global procs that every
// loader provides.
func checkProcGlobal() error {
	if err := checkProcOpen(); err != nil {
		return err
	}
	if C.enumerateInstanceExtensionProperties == nil {
		return errors.New("checkProcGlobal: C.enumerateInstanceExtensionProperties is nil")
	}
	if C.enumerateInstanceLayerProperties == nil {
		return errors.New("checkProcGlobal: C.enumerateInstanceLayerProperties is nil")
	}
	if C.createInstance == nil {
		return errors.New("checkProcGlobal: C.createInstance is nil")
	}
	return nil
}

// checkProcInstance checks the procs of the instance
// identified by h.
func (d *Driver) checkProcInstance(h driver.InstanceHandle, debug bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	in, ok := d.insts[h]
	if !ok {
		return errors.New("checkProcInstance: unknown instance")
	}
	if in.procs.destroyInstance == nil {
		return errors.New("checkProcInstance: destroyInstance is nil")
	}
	if debug && in.procs.createDebugUtilsMessengerEXT == nil {
		return errors.New("checkProcInstance: createDebugUtilsMessengerEXT is nil")
	}
	return nil
}

// checkProcClear checks that the global procs were
// invalidated.
func checkProcClear() error {
	if C.getInstanceProcAddr != nil {
		return errors.New("checkProcClear: C.getInstanceProcAddr is not nil")
	}
	if C.createInstance != nil {
		return errors.New("checkProcClear: C.createInstance is not nil")
	}
	if C.enumerateInstanceExtensionProperties != nil {
		return errors.New("checkProcClear: C.enumerateInstanceExtensionProperties is not nil")
	}
	return nil
}

// callDebugCallback invokes goDebugCallback as the C
// trampoline would.
func callDebugCallback(sev, typ uint32, id int32, name, text string, h uintptr) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	goDebugCallback(C.uint32_t(sev), C.uint32_t(typ), C.int32_t(id), cname, ctext, C.uintptr_t(h))
}

// resultError calls checkResult with res.
func resultError(op string, res int32) error {
	return checkResult(op, C.VkResult(res))
}
