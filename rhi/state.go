// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

// State is the bootstrap state of an Instance.
type State int

// States, in bootstrap order.
const (
	StateUninitialized State = iota
	StateLoaderVerified
	StateProfileResolved
	StateCapabilitiesNegotiated
	StateInstanceCreated
	StateDebugAttached
	StateReady
	StateDestroyed
)

var stateNames = [...]string{
	StateUninitialized:          "Uninitialized",
	StateLoaderVerified:         "LoaderVerified",
	StateProfileResolved:        "ProfileResolved",
	StateCapabilitiesNegotiated: "CapabilitiesNegotiated",
	StateInstanceCreated:        "InstanceCreated",
	StateDebugAttached:          "DebugAttached",
	StateReady:                  "Ready",
	StateDestroyed:              "Destroyed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

// next reports whether to is a valid successor of s.
// StateDebugAttached may only be skipped when diagnostics
// are off; that is checked by the caller.
func (s State) next(to State) bool {
	switch {
	case to == s+1:
		return s < StateReady
	case s == StateInstanceCreated && to == StateReady:
		return true
	}
	return false
}
