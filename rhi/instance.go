// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package rhi bootstraps a graphics API instance.
//
// New resolves a capability profile against the platform,
// negotiates instance extensions and layers, creates the
// instance and, when diagnostics are enabled, attaches a
// debug messenger that routes driver events to a diag.Sink.
// Each step runs only if the previous one succeeded, and a
// failure leaves no driver object alive.
package rhi

import (
	"fmt"
	"strings"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
)

// AppInfo identifies the application to the driver.
type AppInfo struct {
	Name          string
	Version       driver.Version
	EngineName    string
	EngineVersion driver.Version

	// APIVersion is the API version the application targets.
	// The version requested from the driver is the highest
	// of this and the profile's minimum (1.0 if both are
	// zero).
	APIVersion driver.Version
}

// Option configures New.
type Option func(*config)

type config struct {
	profile     *driver.Profile
	diagnostics bool
	sink        diag.Sink
	onError     func(driver.Message)
}

// WithProfile sets the capability profile to resolve.
// A nil profile skips profile resolution and creation is
// version-aware only. By default no profile is used.
func WithProfile(p *driver.Profile) Option {
	return func(c *config) { c.profile = p }
}

// WithDiagnostics overrides DiagnosticsEnabled.
func WithDiagnostics(on bool) Option {
	return func(c *config) { c.diagnostics = on }
}

// WithSink sets the sink that receives bootstrap progress
// and driver diagnostic events. The default discards them.
func WithSink(s diag.Sink) Option {
	return func(c *config) { c.sink = s }
}

// WithValidationErrorHandler sets the function called for
// error-severity driver events, after they are logged.
// The default terminates the process (see NewBridge).
func WithValidationErrorHandler(f func(driver.Message)) Option {
	return func(c *config) { c.onError = f }
}

// noCopy may be embedded into structs which must not be
// copied after first use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Instance owns an instance handle and, with diagnostics,
// the debug messenger attached to it.
// An Instance must not be copied; use Move or MoveTo to
// transfer ownership.
type Instance struct {
	_ noCopy

	plat      driver.Platform
	handle    driver.InstanceHandle
	messenger driver.MessengerHandle
	bridge    *Bridge
	sink      diag.Sink

	profile    *driver.Profile
	apiVersion driver.Version
	exts       []string
	layers     []string
	state      State
}

// New bootstraps an instance on platform p.
//
// The sequence is: open the platform loader (ErrLoaderInit),
// resolve the profile (ErrUnsupportedProfile), negotiate
// extensions (ErrMissingExtension) and layers
// (ErrMissingLayer), create the instance
// (ErrInstanceCreation) and attach the debug messenger
// (ErrDebugMessengerAttach).
// On failure New returns a nil *Instance and every object
// created so far has been destroyed.
func New(p driver.Platform, app AppInfo, req Requirements, opts ...Option) (*Instance, error) {
	c := config{diagnostics: DiagnosticsEnabled, sink: diag.Discard}
	for _, opt := range opts {
		opt(&c)
	}
	if c.sink == nil {
		c.sink = diag.Discard
	}
	in := &Instance{plat: p, sink: c.sink, profile: c.profile}

	if err := p.Open(); err != nil {
		c.sink.Log(diag.LevelError, fmt.Sprintf("rhi: %s loader: %v", p.Name(), err))
		return nil, fmt.Errorf("%w: %s: %w", ErrLoaderInit, p.Name(), err)
	}
	in.advance(StateLoaderVerified)

	if err := ResolveProfile(p, c.profile); err != nil {
		c.sink.Log(diag.LevelError, err.Error())
		return nil, err
	}
	in.advance(StateProfileResolved)

	neg := Negotiator{Platform: p, Diagnostics: c.diagnostics}
	exts, err := neg.NegotiateExtensions(req, c.profile)
	if err != nil {
		c.sink.Log(diag.LevelError, err.Error())
		return nil, err
	}
	layers, err := neg.NegotiateLayers(req)
	if err != nil {
		c.sink.Log(diag.LevelError, err.Error())
		return nil, err
	}
	in.exts, in.layers = exts, layers
	in.advance(StateCapabilitiesNegotiated)

	in.apiVersion = app.APIVersion
	if c.profile != nil && c.profile.MinAPIVersion > in.apiVersion {
		in.apiVersion = c.profile.MinAPIVersion
	}
	if in.apiVersion == 0 {
		in.apiVersion = driver.Version1_0
	}
	desc := &driver.InstanceDesc{
		AppName:       app.Name,
		AppVersion:    app.Version,
		EngineName:    app.EngineName,
		EngineVersion: app.EngineVersion,
		APIVersion:    in.apiVersion,
		Profile:       c.profile,
		Extensions:    exts,
		Layers:        layers,
	}
	if c.diagnostics {
		// The messenger description must be part of the
		// creation chain so that creation itself is observed.
		in.bridge = NewBridge(c.sink, c.onError)
		desc.Debug = in.bridge.Desc()
	}
	h, err := p.CreateInstance(desc)
	if err != nil {
		err := newCreateError(ErrInstanceCreation, "create instance", err)
		c.sink.Log(diag.LevelError, err.Error())
		return nil, err
	}
	in.handle = h
	in.advance(StateInstanceCreated)

	if c.diagnostics {
		m, err := p.CreateDebugMessenger(h, in.bridge.Desc())
		if err != nil {
			p.DestroyInstance(h)
			err := newCreateError(ErrDebugMessengerAttach, "create debug messenger", err)
			c.sink.Log(diag.LevelError, err.Error())
			return nil, err
		}
		in.messenger = m
		in.advance(StateDebugAttached)
	}
	in.advance(StateReady)
	return in, nil
}

// advance moves the state machine forward.
// It panics on an invalid transition.
func (in *Instance) advance(to State) {
	if !in.state.next(to) {
		panic("rhi: invalid state transition " + in.state.String() + " -> " + to.String())
	}
	in.state = to
	in.sink.Log(diag.LevelVerbose, "rhi: "+to.String())
}

// Destroy detaches the debug messenger, if any, and then
// destroys the instance.
// Calling Destroy on an empty Instance has no effect.
func (in *Instance) Destroy() {
	if in == nil || in.handle == 0 {
		return
	}
	if in.messenger != 0 {
		in.plat.DestroyDebugMessenger(in.handle, in.messenger)
		in.messenger = 0
	}
	in.plat.DestroyInstance(in.handle)
	sink := in.sink
	*in = Instance{state: StateDestroyed}
	if sink != nil {
		sink.Log(diag.LevelVerbose, "rhi: "+StateDestroyed.String())
	}
}

// Move transfers ownership to a new Instance.
// in is left empty: its Destroy has no effect and its
// handles are zero.
func (in *Instance) Move() *Instance {
	out := new(Instance)
	in.moveTo(out)
	return out
}

// MoveTo transfers ownership to dst, destroying whatever
// dst owned before. Moving an Instance to itself has no
// effect.
func (in *Instance) MoveTo(dst *Instance) {
	if in == dst {
		return
	}
	dst.Destroy()
	in.moveTo(dst)
}

func (in *Instance) moveTo(dst *Instance) {
	dst.plat, in.plat = in.plat, nil
	dst.handle, in.handle = in.handle, 0
	dst.messenger, in.messenger = in.messenger, 0
	dst.bridge, in.bridge = in.bridge, nil
	dst.sink, in.sink = in.sink, nil
	dst.profile, in.profile = in.profile, nil
	dst.apiVersion, in.apiVersion = in.apiVersion, 0
	dst.exts, in.exts = in.exts, nil
	dst.layers, in.layers = in.layers, nil
	dst.state, in.state = in.state, StateUninitialized
}

// Handle returns the instance handle.
// It is zero if in is empty.
func (in *Instance) Handle() driver.InstanceHandle { return in.handle }

// Messenger returns the debug messenger handle.
// It is zero if diagnostics are off or in is empty.
func (in *Instance) Messenger() driver.MessengerHandle { return in.messenger }

// State returns the bootstrap state.
func (in *Instance) State() State { return in.state }

// Profile returns the resolved profile, or nil.
func (in *Instance) Profile() *driver.Profile { return in.profile }

// APIVersion returns the API version the instance was
// created with.
func (in *Instance) APIVersion() driver.Version { return in.apiVersion }

// Extensions returns the enabled instance extensions.
func (in *Instance) Extensions() []string { return append([]string(nil), in.exts...) }

// Layers returns the enabled instance layers.
func (in *Instance) Layers() []string { return append([]string(nil), in.layers...) }

// HasExtension reports whether name is enabled.
func (in *Instance) HasExtension(name string) bool {
	for _, x := range in.exts {
		if x == name {
			return true
		}
	}
	return false
}

// Report logs a summary of the negotiated instance.
func (in *Instance) Report(s diag.Sink) {
	if s == nil {
		return
	}
	if in.handle == 0 {
		s.Log(diag.LevelInfo, "rhi: no instance")
		return
	}
	s.Log(diag.LevelInfo, fmt.Sprintf("rhi: instance ready on %s (profile %s, API %v)", in.plat.Name(), in.profile, in.apiVersion))
	s.Log(diag.LevelInfo, fmt.Sprintf("rhi: %d extension(s): %s", len(in.exts), strings.Join(in.exts, ", ")))
	s.Log(diag.LevelInfo, fmt.Sprintf("rhi: %d layer(s): %s", len(in.layers), strings.Join(in.layers, ", ")))
	if in.messenger != 0 {
		s.Log(diag.LevelInfo, "rhi: debug messenger attached")
	}
}

// ResolveProfile checks that prof is supported at the
// instance level. It must run before negotiation.
// A nil prof is always resolved.
func ResolveProfile(p driver.Platform, prof *driver.Profile) error {
	if prof == nil {
		return nil
	}
	ok, err := p.ProfileSupport(prof)
	if err != nil {
		return &ProfileError{Profile: prof, Err: err}
	}
	if !ok {
		return &ProfileError{Profile: prof}
	}
	return nil
}
