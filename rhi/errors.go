// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gviegas/graphrunner/driver"
)

// Bootstrap errors. Use errors.Is to classify an error
// returned by New or by the Negotiator.
var (
	// ErrLoaderInit means that the API loader could not be
	// initialized. No driver call can succeed afterwards.
	ErrLoaderInit = errors.New("rhi: loader initialization failed")

	// ErrUnsupportedProfile means that the platform cannot
	// satisfy the requested profile at the instance level.
	ErrUnsupportedProfile = errors.New("rhi: profile not supported")

	// ErrMissingExtension means that a negotiated instance
	// extension is not advertised by the platform.
	ErrMissingExtension = errors.New("rhi: missing instance extension")

	// ErrMissingLayer means that a negotiated instance
	// layer is not installed.
	ErrMissingLayer = errors.New("rhi: missing instance layer")

	// ErrInstanceCreation means that the platform rejected
	// instance creation despite negotiation succeeding.
	ErrInstanceCreation = errors.New("rhi: instance creation failed")

	// ErrDebugMessengerAttach means that the debug
	// messenger could not be attached to the instance.
	ErrDebugMessengerAttach = errors.New("rhi: debug messenger attach failed")
)

// IsFatal reports whether err belongs to the class of
// errors after which the process has no safe way to
// continue: loader initialization, instance creation and
// debug messenger attachment failures, and driver faults
// (driver.ErrFatal, driver.ErrNoHostMemory) wherever they
// surface. Negotiation failures are not fatal: the caller may retry
// with different requirements or another profile.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLoaderInit) ||
		errors.Is(err, ErrInstanceCreation) ||
		errors.Is(err, ErrDebugMessengerAttach) ||
		errors.Is(err, driver.ErrFatal) ||
		errors.Is(err, driver.ErrNoHostMemory)
}

// ProfileError is returned when profile resolution fails.
// It matches ErrUnsupportedProfile only when the support
// query succeeded; otherwise it matches the query error.
type ProfileError struct {
	Profile *driver.Profile

	// Err is the error of the support query, or nil if
	// the query succeeded and reported no support.
	Err error
}

func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rhi: query support of profile %s: %v", e.Profile, e.Err)
	}
	return fmt.Sprintf("rhi: profile %s (API %v) is not supported at the instance level", e.Profile, e.Profile.MinAPIVersion)
}

func (e *ProfileError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err}
	}
	return []error{ErrUnsupportedProfile}
}

// Capability kinds reported by MissingError.
const (
	KindExtension = "extension"
	KindLayer     = "layer"
)

// MissingError is returned when negotiated names are not
// available on the platform.
type MissingError struct {
	Kind string

	// Names lists every missing name, in negotiated order.
	// It is empty when the platform advertises fewer items
	// than were requested, in which case no names were
	// compared.
	Names []string

	Requested int
	Available int
}

func (e *MissingError) Error() string {
	switch len(e.Names) {
	case 0:
		return fmt.Sprintf("rhi: %d instance %ss required but only %d supported", e.Requested, e.Kind, e.Available)
	case 1:
		return fmt.Sprintf("rhi: required instance %s not supported: %q", e.Kind, e.Names[0])
	}
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("rhi: required instance %ss not supported: %s", e.Kind, strings.Join(quoted, ", "))
}

func (e *MissingError) Unwrap() error {
	if e.Kind == KindLayer {
		return ErrMissingLayer
	}
	return ErrMissingExtension
}

// CreateError is returned when a creation call fails.
type CreateError struct {
	// Op names the failing call.
	Op string

	// Code is the platform's result code, or zero if the
	// platform did not provide one.
	Code int32

	Err  error
	kind error
}

func newCreateError(kind error, op string, err error) *CreateError {
	e := &CreateError{Op: op, Err: err, kind: kind}
	var re *driver.ResultError
	if errors.As(err, &re) {
		e.Code = re.Code
	}
	return e
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.kind, e.Op, e.Err)
}

func (e *CreateError) Unwrap() []error { return []error{e.kind, e.Err} }
