// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an API version number packed the same way
// as VK_MAKE_API_VERSION with a variant of zero.
type Version uint32

// MakeVersion creates a Version from its components.
func MakeVersion(major, minor, patch int) Version {
	return Version(uint32(major)<<22 | uint32(minor)<<12 | uint32(patch))
}

// Major returns the major version number.
func (v Version) Major() int { return int(v >> 22 & 0x7f) }

// Minor returns the minor version number.
func (v Version) Minor() int { return int(v >> 12 & 0x3ff) }

// Patch returns the patch version number.
func (v Version) Patch() int { return int(v & 0xfff) }

// Variant returns the variant number.
// Non-zero variants identify implementations that are
// not conformant with the mainline API.
func (v Version) Variant() int { return int(v >> 29) }

// String implements fmt.Stringer.
func (v Version) String() string {
	return strconv.Itoa(v.Major()) + "." + strconv.Itoa(v.Minor()) + "." + strconv.Itoa(v.Patch())
}

// ParseVersion parses a "major.minor[.patch]" string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("driver: malformed version %q", s)
	}
	var comp [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("driver: parse version %q: %w", s, err)
		}
		comp[i] = n
	}
	if comp[0] > 0x7f || comp[1] > 0x3ff || comp[2] > 0xfff {
		return 0, fmt.Errorf("driver: version %q out of range", s)
	}
	return MakeVersion(int(comp[0]), int(comp[1]), int(comp[2])), nil
}

// Common versions.
var (
	Version1_0 = MakeVersion(1, 0, 0)
	Version1_1 = MakeVersion(1, 1, 0)
	Version1_2 = MakeVersion(1, 2, 0)
	Version1_3 = MakeVersion(1, 3, 0)
)

// Profile identifies a named, versioned bundle of
// instance requirements.
type Profile struct {
	Name          string
	SpecVersion   uint32
	MinAPIVersion Version

	// Instance extensions that the profile mandates.
	Extensions []string
}

// String implements fmt.Stringer.
func (p *Profile) String() string {
	if p == nil {
		return "<none>"
	}
	return p.Name + " v" + strconv.FormatUint(uint64(p.SpecVersion), 10)
}

// InstanceDesc describes an instance to create.
type InstanceDesc struct {
	AppName       string
	AppVersion    Version
	EngineName    string
	EngineVersion Version
	APIVersion    Version

	// Profile, if not nil, is the profile the instance is
	// created against. Otherwise creation is version-aware
	// only.
	Profile *Profile

	Extensions []string
	Layers     []string

	// Debug, if not nil, is linked into the creation chain
	// so that events raised during instance creation and
	// destruction are reported too.
	Debug *MessengerDesc
}

// Severity is the severity of a debug message.
type Severity int

// Severities.
const (
	SeverityVerbose Severity = 1 << iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "VERBOSE"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	}
	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

// MessageType is a mask of debug message categories.
type MessageType int

// Message types.
const (
	TypeGeneral MessageType = 1 << iota
	TypeValidation
	TypePerformance
)

// Message is a diagnostic event raised by the
// implementation.
type Message struct {
	// Severity may have more than one bit set.
	Severity Severity
	Type     MessageType
	IDNumber int32
	IDName   string
	Text     string
}

// MessengerDesc describes a debug messenger.
type MessengerDesc struct {
	Severity Severity
	Type     MessageType

	// Callback is called for every event that matches
	// both masks. It may be called from any goroutine,
	// including from within Platform calls.
	Callback func(Message)
}

// ResultError is an error returned by an implementation
// call, carrying the implementation's result code.
type ResultError struct {
	Op   string
	Code int32
	Err  error
}

// Error implements error.
func (e *ResultError) Error() string {
	return e.Op + ": " + e.Err.Error() + " (" + strconv.Itoa(int(e.Code)) + ")"
}

// Unwrap returns the underlying error.
func (e *ResultError) Unwrap() error { return e.Err }
