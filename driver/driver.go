// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines the boundary between instance
// bootstrap logic and a platform-specific graphics API.
// It is designed to allow platform-specific APIs to be
// implemented in a mostly straightforward manner.
package driver

import (
	"errors"
	"log"
	"sync"
)

// Platform is the interface that provides capability
// queries and instance-level object management for an
// underlying graphics API implementation.
//
// Queries are not cached: every call asks the live
// implementation again.
type Platform interface {
	// Open loads the API loader.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return nil.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() error

	// Name returns the name of the platform.
	// It must not cause the platform to be opened.
	Name() string

	// Close unloads the API loader.
	// Closing a platform that is not open has no effect.
	Close()

	// InstanceVersion returns the highest API version
	// supported for instance creation.
	InstanceVersion() (Version, error)

	// InstanceExtensionCount returns the number of
	// instance extensions that the implementation
	// advertises, without fetching their names.
	InstanceExtensionCount() (int, error)

	// InstanceExtensions returns the names of all
	// instance extensions that the implementation
	// advertises.
	InstanceExtensions() ([]string, error)

	// ProfileExtensions returns the names of the instance
	// extensions that p mandates.
	ProfileExtensions(p *Profile) ([]string, error)

	// InstanceLayerCount returns the number of instance
	// layers that are installed.
	InstanceLayerCount() (int, error)

	// InstanceLayers returns the names of all instance
	// layers that are installed.
	InstanceLayers() ([]string, error)

	// ProfileSupport reports whether p can be satisfied
	// at the instance level.
	ProfileSupport(p *Profile) (bool, error)

	// CreateInstance creates a new instance as described
	// by desc. The instance-level entry points are bound
	// to the returned handle before it is returned.
	CreateInstance(desc *InstanceDesc) (InstanceHandle, error)

	// DestroyInstance destroys an instance.
	// Any messenger created from h must have been
	// destroyed already.
	DestroyInstance(h InstanceHandle)

	// CreateDebugMessenger attaches a debug messenger to
	// an instance.
	CreateDebugMessenger(h InstanceHandle, desc *MessengerDesc) (MessengerHandle, error)

	// DestroyDebugMessenger detaches a debug messenger
	// from the instance it was created from.
	DestroyDebugMessenger(h InstanceHandle, m MessengerHandle)
}

// InstanceHandle is an opaque handle to an instance.
// The zero value identifies no instance.
type InstanceHandle uintptr

// MessengerHandle is an opaque handle to a debug messenger.
// The zero value identifies no messenger.
type MessengerHandle uint64

// ErrNotInstalled means that a platform-specific library
// required for the platform to work is not present in the
// system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNotOpen means that a Platform method that requires
// the loader was called before Open succeeded.
var ErrNotOpen = errors.New("driver: platform not open")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrFatal means that the implementation is in an
// unrecoverable state.
var ErrFatal = errors.New("driver: fatal error")

// Platforms returns the registered Platforms.
// Client code imports specific platform packages, and
// then calls this function. Platforms that do not
// register themselves on init will not be considered
// for selection.
func Platforms() []Platform {
	mu.Lock()
	defer mu.Unlock()
	plat := make([]Platform, len(platforms))
	copy(plat, platforms)
	return plat
}

// Lookup returns the registered Platform with the given
// name, or nil if there is none.
func Lookup(name string) Platform {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range platforms {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Register registers a Platform.
// Implementations are expected to call Register exactly
// once, from an init function.
// If a platform with the same name has already been
// registered, it will be replaced by plat.
func Register(plat Platform) {
	mu.Lock()
	defer mu.Unlock()
	for i := range platforms {
		if platforms[i].Name() == plat.Name() {
			platforms[i] = plat
			log.Printf("[!] platform '%s' replaced", plat.Name())
			return
		}
	}
	platforms = append(platforms, plat)
}

// Variables used for platform registration.
var (
	mu        sync.Mutex
	platforms []Platform = make([]Platform, 0, 1)
)
