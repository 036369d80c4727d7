// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

import (
	"fmt"

	"github.com/gviegas/graphrunner/driver"
)

// Names that diagnostics add to negotiation.
const (
	DebugUtilsExtension = "VK_EXT_debug_utils"
	ValidationLayer     = "VK_LAYER_KHRONOS_validation"
)

// Requirements are the instance extensions and layers that
// the application needs. Order is irrelevant and duplicates
// are allowed.
type Requirements struct {
	Extensions []string
	Layers     []string
}

// Negotiator merges requirements with profile-mandated and
// diagnostics-mandated names and validates the result
// against the platform.
type Negotiator struct {
	Platform driver.Platform

	// Diagnostics adds DebugUtilsExtension and
	// ValidationLayer to the negotiated sets.
	Diagnostics bool
}

// NegotiateExtensions returns the union of req.Extensions,
// the extensions mandated by prof (if not nil) and, with
// diagnostics, DebugUtilsExtension.
// It fails with a *MissingError wrapping ErrMissingExtension
// if any name in the union is not advertised by the
// platform.
// The result is a new slice ordered as: caller names in
// input order, then profile names, then the diagnostics
// name, without duplicates.
func (n *Negotiator) NegotiateExtensions(req Requirements, prof *driver.Profile) ([]string, error) {
	var mandated []string
	if prof != nil {
		var err error
		if mandated, err = n.Platform.ProfileExtensions(prof); err != nil {
			return nil, fmt.Errorf("rhi: query extensions of profile %s: %w", prof, err)
		}
	}
	var extra []string
	if n.Diagnostics {
		extra = []string{DebugUtilsExtension}
	}
	names := union(req.Extensions, mandated, extra)
	if err := validate(KindExtension, names, n.Platform.InstanceExtensionCount, n.Platform.InstanceExtensions); err != nil {
		return nil, err
	}
	return names, nil
}

// NegotiateLayers returns req.Layers plus, with
// diagnostics, ValidationLayer. Profiles mandate no layers.
// It fails with a *MissingError wrapping ErrMissingLayer if
// any name is not installed.
func (n *Negotiator) NegotiateLayers(req Requirements) ([]string, error) {
	var extra []string
	if n.Diagnostics {
		extra = []string{ValidationLayer}
	}
	names := union(req.Layers, extra)
	if err := validate(KindLayer, names, n.Platform.InstanceLayerCount, n.Platform.InstanceLayers); err != nil {
		return nil, err
	}
	return names, nil
}

// union concatenates sets dropping repeated names.
// It never returns one of its arguments.
func union(sets ...[]string) []string {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	seen := make(map[string]bool, n)
	names := make([]string, 0, n)
	for _, s := range sets {
		for _, x := range s {
			if !seen[x] {
				seen[x] = true
				names = append(names, x)
			}
		}
	}
	return names
}

// validate checks that every name is in the platform's
// list. The count is fetched first so that a request
// larger than the platform's whole list fails without
// enumerating names.
func validate(kind string, names []string, count func() (int, error), list func() ([]string, error)) error {
	if len(names) == 0 {
		return nil
	}
	for _, x := range names {
		if x == "" {
			return &MissingError{Kind: kind, Names: []string{""}, Requested: len(names)}
		}
	}
	cnt, err := count()
	if err != nil {
		return fmt.Errorf("rhi: count instance %ss: %w", kind, err)
	}
	if cnt < len(names) {
		return &MissingError{Kind: kind, Requested: len(names), Available: cnt}
	}
	supported, err := list()
	if err != nil {
		return fmt.Errorf("rhi: enumerate instance %ss: %w", kind, err)
	}
	set := make(map[string]bool, len(supported))
	for _, x := range supported {
		set[x] = true
	}
	var missing []string
	for _, x := range names {
		if !set[x] {
			missing = append(missing, x)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Kind: kind, Names: missing, Requested: len(names), Available: len(supported)}
	}
	return nil
}
