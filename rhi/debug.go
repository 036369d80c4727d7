// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

import (
	"strconv"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
)

// Bridge routes driver-originated diagnostic events to a
// diag.Sink.
type Bridge struct {
	sink    diag.Sink
	onError func(driver.Message)
}

// fatal is called by the default error handler.
var fatal = diag.Fatal

// NewBridge creates a Bridge logging to sink.
// onError is called after an error-severity event was
// logged. If it is nil, such events terminate the process
// through diag.Fatal.
func NewBridge(sink diag.Sink, onError func(driver.Message)) *Bridge {
	if sink == nil {
		sink = diag.Discard
	}
	b := &Bridge{sink: sink, onError: onError}
	if b.onError == nil {
		b.onError = func(m driver.Message) {
			fatal(b.sink, "rhi: driver reported a validation error; aborting")
		}
	}
	return b
}

// Desc returns the messenger description: warning and
// error events of the general and validation categories,
// delivered to b.Handle.
func (b *Bridge) Desc() *driver.MessengerDesc {
	return &driver.MessengerDesc{
		Severity: driver.SeverityWarning | driver.SeverityError,
		Type:     driver.TypeGeneral | driver.TypeValidation,
		Callback: b.Handle,
	}
}

// Handle logs m and applies the error policy.
func (b *Bridge) Handle(m driver.Message) {
	lvl := Route(m.Severity)
	b.sink.Log(lvl, FormatMessage(m))
	if lvl == diag.LevelError {
		b.onError(m)
	}
}

// Route maps a driver severity mask to a diag.Level.
// Bits are tested in increasing order of severity and the
// first match wins.
func Route(s driver.Severity) diag.Level {
	switch {
	case s&driver.SeverityVerbose != 0:
		return diag.LevelVerbose
	case s&driver.SeverityInfo != 0:
		return diag.LevelInfo
	case s&driver.SeverityWarning != 0:
		return diag.LevelWarning
	case s&driver.SeverityError != 0:
		return diag.LevelError
	}
	return diag.LevelInfo
}

// FormatMessage formats m as "[id-number][id-name] : text",
// or "[id-number] : text" when m has no id name.
func FormatMessage(m driver.Message) string {
	id := "[" + strconv.FormatInt(int64(m.IDNumber), 10) + "]"
	if m.IDName != "" {
		id += "[" + m.IDName + "]"
	}
	return id + " : " + m.Text
}
