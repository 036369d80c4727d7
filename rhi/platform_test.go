// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

import (
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/gviegas/graphrunner/driver"
)

// Test doubles for driver.Platform.

// mockPlatform is a driver.Platform whose calls are
// recorded by testify's mock.
type mockPlatform struct{ mock.Mock }

func (m *mockPlatform) Open() error  { return m.Called().Error(0) }
func (m *mockPlatform) Name() string { return "mock" }
func (m *mockPlatform) Close()       { m.Called() }

func (m *mockPlatform) InstanceVersion() (driver.Version, error) {
	ret := m.Called()
	return ret.Get(0).(driver.Version), ret.Error(1)
}

func (m *mockPlatform) InstanceExtensionCount() (int, error) {
	ret := m.Called()
	return ret.Int(0), ret.Error(1)
}

func (m *mockPlatform) InstanceExtensions() ([]string, error) {
	ret := m.Called()
	return stringsOrNil(ret.Get(0)), ret.Error(1)
}

func (m *mockPlatform) ProfileExtensions(p *driver.Profile) ([]string, error) {
	ret := m.Called(p)
	return stringsOrNil(ret.Get(0)), ret.Error(1)
}

func (m *mockPlatform) InstanceLayerCount() (int, error) {
	ret := m.Called()
	return ret.Int(0), ret.Error(1)
}

func (m *mockPlatform) InstanceLayers() ([]string, error) {
	ret := m.Called()
	return stringsOrNil(ret.Get(0)), ret.Error(1)
}

func (m *mockPlatform) ProfileSupport(p *driver.Profile) (bool, error) {
	ret := m.Called(p)
	return ret.Bool(0), ret.Error(1)
}

func (m *mockPlatform) CreateInstance(desc *driver.InstanceDesc) (driver.InstanceHandle, error) {
	ret := m.Called(desc)
	return ret.Get(0).(driver.InstanceHandle), ret.Error(1)
}

func (m *mockPlatform) DestroyInstance(h driver.InstanceHandle) { m.Called(h) }

func (m *mockPlatform) CreateDebugMessenger(h driver.InstanceHandle, desc *driver.MessengerDesc) (driver.MessengerHandle, error) {
	ret := m.Called(h, desc)
	return ret.Get(0).(driver.MessengerHandle), ret.Error(1)
}

func (m *mockPlatform) DestroyDebugMessenger(h driver.InstanceHandle, msg driver.MessengerHandle) {
	m.Called(h, msg)
}

// methods returns the names of the recorded calls, in order.
func (m *mockPlatform) methods() []string {
	var names []string
	for _, c := range m.Calls {
		names = append(names, c.Method)
	}
	return names
}

func stringsOrNil(v any) []string {
	if v == nil {
		return nil
	}
	return v.([]string)
}

// fakePlatform is a scripted driver.Platform that tracks
// live objects and the order of lifecycle calls.
type fakePlatform struct {
	exts      []string
	layers    []string
	version   driver.Version
	unsupport bool

	openErr      error
	createErr    error
	messengerErr error

	// creationEvent, if set, is delivered through the
	// chained messenger description during CreateInstance.
	creationEvent *driver.Message

	calls      []string
	lastDesc   *driver.InstanceDesc
	lastMsgr   *driver.MessengerDesc
	next       uint64
	instances  map[driver.InstanceHandle]bool
	messengers map[driver.MessengerHandle]driver.InstanceHandle
}

var errFake = errors.New("fake: failure")

func newFakePlatform(exts, layers []string) *fakePlatform {
	return &fakePlatform{
		exts:       exts,
		layers:     layers,
		version:    driver.MakeVersion(1, 3, 290),
		instances:  map[driver.InstanceHandle]bool{},
		messengers: map[driver.MessengerHandle]driver.InstanceHandle{},
	}
}

func (f *fakePlatform) record(s string) { f.calls = append(f.calls, s) }

func (f *fakePlatform) Open() error  { f.record("Open"); return f.openErr }
func (f *fakePlatform) Name() string { return "fake" }
func (f *fakePlatform) Close()       { f.record("Close") }

func (f *fakePlatform) InstanceVersion() (driver.Version, error) {
	f.record("InstanceVersion")
	return f.version, nil
}

func (f *fakePlatform) InstanceExtensionCount() (int, error) {
	f.record("InstanceExtensionCount")
	return len(f.exts), nil
}

func (f *fakePlatform) InstanceExtensions() ([]string, error) {
	f.record("InstanceExtensions")
	return append([]string(nil), f.exts...), nil
}

func (f *fakePlatform) ProfileExtensions(p *driver.Profile) ([]string, error) {
	f.record("ProfileExtensions")
	return append([]string(nil), p.Extensions...), nil
}

func (f *fakePlatform) InstanceLayerCount() (int, error) {
	f.record("InstanceLayerCount")
	return len(f.layers), nil
}

func (f *fakePlatform) InstanceLayers() ([]string, error) {
	f.record("InstanceLayers")
	return append([]string(nil), f.layers...), nil
}

func (f *fakePlatform) ProfileSupport(p *driver.Profile) (bool, error) {
	f.record("ProfileSupport")
	return !f.unsupport && f.version >= p.MinAPIVersion, nil
}

func (f *fakePlatform) CreateInstance(desc *driver.InstanceDesc) (driver.InstanceHandle, error) {
	f.record("CreateInstance")
	f.lastDesc = desc
	if desc.Debug != nil && f.creationEvent != nil {
		desc.Debug.Callback(*f.creationEvent)
	}
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.next++
	h := driver.InstanceHandle(f.next)
	f.instances[h] = true
	return h, nil
}

func (f *fakePlatform) DestroyInstance(h driver.InstanceHandle) {
	f.record("DestroyInstance")
	if !f.instances[h] {
		panic("fake: destroying unknown instance")
	}
	for _, owner := range f.messengers {
		if owner == h {
			panic("fake: instance destroyed before its messenger")
		}
	}
	delete(f.instances, h)
}

func (f *fakePlatform) CreateDebugMessenger(h driver.InstanceHandle, desc *driver.MessengerDesc) (driver.MessengerHandle, error) {
	f.record("CreateDebugMessenger")
	f.lastMsgr = desc
	if !f.instances[h] {
		panic("fake: messenger for unknown instance")
	}
	if f.messengerErr != nil {
		return 0, f.messengerErr
	}
	f.next++
	m := driver.MessengerHandle(f.next)
	f.messengers[m] = h
	return m, nil
}

func (f *fakePlatform) DestroyDebugMessenger(h driver.InstanceHandle, m driver.MessengerHandle) {
	f.record("DestroyDebugMessenger")
	if owner, ok := f.messengers[m]; !ok || owner != h {
		panic("fake: destroying unknown messenger")
	}
	delete(f.messengers, m)
}

// live returns the number of objects not yet destroyed.
func (f *fakePlatform) live() int { return len(f.instances) + len(f.messengers) }

var (
	_ driver.Platform = (*mockPlatform)(nil)
	_ driver.Platform = (*fakePlatform)(nil)
)
