// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements driver.Platform using the Vulkan API.
//
// Importing this package registers a Platform named
// "vulkan". The Vulkan loader is opened lazily by
// Platform.Open.
package vk

// #include <stdlib.h>
// #include "proc.h"
import "C"

import (
	"errors"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/gviegas/graphrunner/driver"
)

const driverName = "vulkan"

// Driver implements driver.Platform.
type Driver struct {
	mu      sync.Mutex
	loaded  bool
	openErr error

	insts map[driver.InstanceHandle]*instance
	msgrs map[driver.MessengerHandle]*messenger
	next  driver.MessengerHandle
}

// instance is a VkInstance and its procs.
type instance struct {
	inst  C.VkInstance
	procs C.instanceProcs

	// debug identifies the callback chained into instance
	// creation. It must outlive vkDestroyInstance.
	debug cgo.Handle
}

// messenger is a VkDebugUtilsMessengerEXT.
type messenger struct {
	owner driver.InstanceHandle
	msgr  C.VkDebugUtilsMessengerEXT
	cb    cgo.Handle
}

func init() {
	driver.Register(&Driver{})
}

// Open loads the Vulkan library and the global procs.
// The outcome is cached: once Open succeeds, subsequent
// calls return nil, and once it fails, subsequent calls
// return the same error until Close is called.
func (d *Driver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.loaded:
		return nil
	case d.openErr != nil:
		return d.openErr
	}
	if err := acquireLoader(); err != nil {
		d.openErr = err
		return err
	}
	d.loaded = true
	d.insts = make(map[driver.InstanceHandle]*instance)
	d.msgrs = make(map[driver.MessengerHandle]*messenger)
	return nil
}

// loader is the process-wide Vulkan library. The procs it
// loads are C globals, so every Driver shares it.
var loader struct {
	mu   sync.Mutex
	refs int
	proc
}

// acquireLoader loads the library and the global procs
// on first use and adds a reference.
func acquireLoader() error {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if loader.refs == 0 {
		if err := loader.open(); err != nil {
			return err
		}
		C.getGlobalProcs()
		if C.enumerateInstanceExtensionProperties == nil ||
			C.enumerateInstanceLayerProperties == nil ||
			C.createInstance == nil {
			C.clearProcs()
			loader.close()
			return driver.ErrNotInstalled
		}
	}
	loader.refs++
	return nil
}

// releaseLoader drops a reference. The library is
// unloaded when the last one is dropped.
func releaseLoader() {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if loader.refs == 0 {
		return
	}
	if loader.refs--; loader.refs == 0 {
		C.clearProcs()
		loader.close()
	}
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close destroys every object that is still alive and
// unloads the Vulkan library.
func (d *Driver) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for h := range d.insts {
		d.destroyInstance(h)
	}
	if d.loaded {
		releaseLoader()
	}
	d.loaded = false
	d.openErr = nil
	d.insts = nil
	d.msgrs = nil
	d.next = 0
}

// checkOpen must be called with d.mu held.
func (d *Driver) checkOpen() error {
	if !d.loaded {
		return driver.ErrNotOpen
	}
	return nil
}

// InstanceVersion returns the instance-level version
// supported by the loader. It is 1.0 if the loader does
// not provide vkEnumerateInstanceVersion.
func (d *Driver) InstanceVersion() (driver.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	return instanceVersion()
}

func instanceVersion() (driver.Version, error) {
	if C.enumerateInstanceVersion == nil {
		return driver.Version1_0, nil
	}
	var v C.uint32_t
	if err := checkResult("vkEnumerateInstanceVersion", C.vkEnumerateInstanceVersion(&v)); err != nil {
		return 0, err
	}
	if driver.Version(v).Variant() != 0 {
		// Do not support variants.
		return 0, errVariant
	}
	return driver.Version(v), nil
}

// InstanceExtensionCount returns the number of instance
// extensions the loader advertises.
func (d *Driver) InstanceExtensionCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	var n C.uint32_t
	if err := checkResult("vkEnumerateInstanceExtensionProperties", C.vkEnumerateInstanceExtensionProperties(nil, &n, nil)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// InstanceExtensions returns the names of the instance
// extensions the loader advertises.
func (d *Driver) InstanceExtensions() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return instanceExts()
}

// ProfileExtensions returns the instance extensions that
// p mandates.
func (d *Driver) ProfileExtensions(p *driver.Profile) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return append([]string(nil), p.Extensions...), nil
}

// InstanceLayerCount returns the number of installed
// instance layers.
func (d *Driver) InstanceLayerCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	var n C.uint32_t
	if err := checkResult("vkEnumerateInstanceLayerProperties", C.vkEnumerateInstanceLayerProperties(&n, nil)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// InstanceLayers returns the names of the installed
// instance layers.
func (d *Driver) InstanceLayers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return instanceLayers()
}

// ProfileSupport reports whether the loader's instance
// version is at least p.MinAPIVersion and every extension
// p mandates is advertised.
func (d *Driver) ProfileSupport(p *driver.Profile) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return false, err
	}
	if p == nil {
		return true, nil
	}
	v, err := instanceVersion()
	if err != nil {
		return false, err
	}
	if v < p.MinAPIVersion {
		return false, nil
	}
	if len(p.Extensions) == 0 {
		return true, nil
	}
	exts, err := instanceExts()
	if err != nil {
		return false, err
	}
	return containsAll(exts, p.Extensions), nil
}

// CreateInstance creates a VkInstance and loads its procs.
// When desc.Debug is not nil, a messenger description is
// chained into creation so that events raised by
// vkCreateInstance and vkDestroyInstance are delivered.
func (d *Driver) CreateInstance(desc *driver.InstanceDesc) (driver.InstanceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}

	appName := C.CString(desc.AppName)
	defer C.free(unsafe.Pointer(appName))
	engName := C.CString(desc.EngineName)
	defer C.free(unsafe.Pointer(engName))
	appInfo := (*C.VkApplicationInfo)(C.malloc(C.sizeof_VkApplicationInfo))
	defer C.free(unsafe.Pointer(appInfo))
	*appInfo = C.VkApplicationInfo{
		sType:              C.VK_STRUCTURE_TYPE_APPLICATION_INFO,
		pApplicationName:   appName,
		applicationVersion: C.uint32_t(desc.AppVersion),
		pEngineName:        engName,
		engineVersion:      C.uint32_t(desc.EngineVersion),
		apiVersion:         C.uint32_t(desc.APIVersion),
	}

	exts, freeExts := cStrings(desc.Extensions)
	defer freeExts()
	layers, freeLayers := cStrings(desc.Layers)
	defer freeLayers()
	info := (*C.VkInstanceCreateInfo)(C.malloc(C.sizeof_VkInstanceCreateInfo))
	defer C.free(unsafe.Pointer(info))
	*info = C.VkInstanceCreateInfo{
		sType:                   C.VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO,
		pApplicationInfo:        appInfo,
		enabledLayerCount:       C.uint32_t(len(desc.Layers)),
		ppEnabledLayerNames:     layers,
		enabledExtensionCount:   C.uint32_t(len(desc.Extensions)),
		ppEnabledExtensionNames: exts,
	}
	if contains(desc.Extensions, extPortabilityEnumerationS) {
		info.flags |= C.VkInstanceCreateFlags(C.VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR)
	}

	var cb cgo.Handle
	if desc.Debug != nil {
		cb = cgo.NewHandle(desc.Debug.Callback)
		msgInfo := newMessengerInfo(desc.Debug, cb)
		defer C.free(unsafe.Pointer(msgInfo))
		info.pNext = unsafe.Pointer(msgInfo)
	}

	var inst C.VkInstance
	if err := checkResult("vkCreateInstance", C.vkCreateInstance(info, nil, &inst)); err != nil {
		if cb != 0 {
			cb.Delete()
		}
		return 0, err
	}
	in := &instance{inst: inst, debug: cb}
	C.getInstanceProcs(inst, &in.procs)
	h := driver.InstanceHandle(uintptr(unsafe.Pointer(inst)))
	d.insts[h] = in
	return h, nil
}

// DestroyInstance destroys the instance identified by h.
// Messengers that h still owns are destroyed first.
func (d *Driver) DestroyInstance(h driver.InstanceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyInstance(h)
}

// destroyInstance must be called with d.mu held.
func (d *Driver) destroyInstance(h driver.InstanceHandle) {
	in, ok := d.insts[h]
	if !ok {
		return
	}
	for m, x := range d.msgrs {
		if x.owner == h {
			d.destroyMessenger(m)
		}
	}
	C.vkDestroyInstance(&in.procs, in.inst, nil)
	if in.debug != 0 {
		in.debug.Delete()
	}
	delete(d.insts, h)
}

// CreateDebugMessenger creates a VkDebugUtilsMessengerEXT
// on the instance identified by h.
// VK_EXT_debug_utils must have been enabled on h.
func (d *Driver) CreateDebugMessenger(h driver.InstanceHandle, desc *driver.MessengerDesc) (driver.MessengerHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	in, ok := d.insts[h]
	if !ok {
		return 0, errNoInstance
	}
	const op = "vkCreateDebugUtilsMessengerEXT"
	if in.procs.createDebugUtilsMessengerEXT == nil {
		return 0, &driver.ResultError{Op: op, Code: int32(C.VK_ERROR_EXTENSION_NOT_PRESENT), Err: errNoExtension}
	}
	cb := cgo.NewHandle(desc.Callback)
	info := newMessengerInfo(desc, cb)
	defer C.free(unsafe.Pointer(info))
	var msgr C.VkDebugUtilsMessengerEXT
	if err := checkResult(op, C.vkCreateDebugUtilsMessengerEXT(&in.procs, in.inst, info, nil, &msgr)); err != nil {
		cb.Delete()
		return 0, err
	}
	d.next++
	d.msgrs[d.next] = &messenger{owner: h, msgr: msgr, cb: cb}
	return d.next, nil
}

// DestroyDebugMessenger destroys the messenger identified
// by m, which h must own.
func (d *Driver) DestroyDebugMessenger(h driver.InstanceHandle, m driver.MessengerHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if x, ok := d.msgrs[m]; ok && x.owner == h {
		d.destroyMessenger(m)
	}
}

// destroyMessenger must be called with d.mu held.
func (d *Driver) destroyMessenger(m driver.MessengerHandle) {
	x := d.msgrs[m]
	in := d.insts[x.owner]
	C.vkDestroyDebugUtilsMessengerEXT(&in.procs, in.inst, x.msgr, nil)
	x.cb.Delete()
	delete(d.msgrs, m)
}

// newMessengerInfo creates a messenger description in C
// memory. Call C.free to deallocate it.
func newMessengerInfo(desc *driver.MessengerDesc, cb cgo.Handle) *C.VkDebugUtilsMessengerCreateInfoEXT {
	info := (*C.VkDebugUtilsMessengerCreateInfoEXT)(C.malloc(C.sizeof_VkDebugUtilsMessengerCreateInfoEXT))
	C.setMessengerInfo(info, C.uint32_t(convSeverity(desc.Severity)), C.uint32_t(desc.Type&typeMask), C.uintptr_t(cb))
	return info
}

// checkResult returns an error derived from a VkResult value.
// If such value does not indicate an error, it returns nil instead.
// op names the call that produced res.
func checkResult(op string, res C.VkResult) error {
	if res >= 0 {
		// Not an error: VK_ERROR_* values are all negative.
		return nil
	}
	return &driver.ResultError{Op: op, Code: int32(res), Err: resultErr(res)}
}

func resultErr(res C.VkResult) error {
	switch res {
	case C.VK_ERROR_OUT_OF_HOST_MEMORY:
		return errNoHostMemory
	case C.VK_ERROR_OUT_OF_DEVICE_MEMORY:
		return errNoDeviceMemory
	case C.VK_ERROR_INITIALIZATION_FAILED:
		return errInitFailed
	case C.VK_ERROR_LAYER_NOT_PRESENT:
		return errNoLayer
	case C.VK_ERROR_EXTENSION_NOT_PRESENT:
		return errNoExtension
	case C.VK_ERROR_INCOMPATIBLE_DRIVER:
		return errDriverCompat
	}
	return errUnknown
}

// Common Vulkan errors (VK_ERROR_*).
var (
	errNoHostMemory   = driver.ErrNoHostMemory
	errNoDeviceMemory = errors.New("vk: out of device memory")
	errInitFailed     = errors.New("vk: initialization failed")
	errNoLayer        = errors.New("vk: layer not present")
	errNoExtension    = errors.New("vk: extension not present")
	errDriverCompat   = errors.New("vk: incompatible driver")
	errUnknown        = errors.New("vk: unknown error")
)

var (
	errVariant    = errors.New("vk: variant implementations are not supported")
	errNoInstance = errors.New("vk: unknown instance handle")
)
