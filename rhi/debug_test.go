// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package rhi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
)

func TestRoute(t *testing.T) {
	for _, x := range []struct {
		sev  driver.Severity
		want diag.Level
	}{
		{driver.SeverityVerbose, diag.LevelVerbose},
		{driver.SeverityInfo, diag.LevelInfo},
		{driver.SeverityWarning, diag.LevelWarning},
		{driver.SeverityError, diag.LevelError},
		{driver.SeverityWarning | driver.SeverityError, diag.LevelWarning},
		{driver.SeverityInfo | driver.SeverityError, diag.LevelInfo},
		{driver.SeverityVerbose | driver.SeverityWarning, diag.LevelVerbose},
		{0, diag.LevelInfo},
	} {
		if have := Route(x.sev); have != x.want {
			t.Errorf("Route(%#x)\nhave %v\nwant %v", uint32(x.sev), have, x.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	for _, x := range []struct {
		msg  driver.Message
		want string
	}{
		{driver.Message{IDNumber: 42, IDName: "VUID-x", Text: "hi"}, "[42][VUID-x] : hi"},
		{driver.Message{IDNumber: 0, Text: "no name"}, "[0] : no name"},
		{driver.Message{IDNumber: -1234, IDName: "Loader Message"}, "[-1234][Loader Message] : "},
	} {
		if have := FormatMessage(x.msg); have != x.want {
			t.Errorf("FormatMessage\nhave %q\nwant %q", have, x.want)
		}
	}
}

func TestBridgeDesc(t *testing.T) {
	b := NewBridge(nil, func(driver.Message) {})
	d := b.Desc()
	assert.Equal(t, driver.SeverityWarning|driver.SeverityError, d.Severity)
	assert.Equal(t, driver.TypeGeneral|driver.TypeValidation, d.Type)
	assert.NotNil(t, d.Callback)
	// A nil sink discards.
	d.Callback(driver.Message{Severity: driver.SeverityWarning, Text: "x"})
}

func TestBridgeHandle(t *testing.T) {
	var rec diag.Recorder
	var errs int
	b := NewBridge(&rec, func(driver.Message) { errs++ })

	b.Handle(driver.Message{Severity: driver.SeverityInfo, IDNumber: 1, Text: "info"})
	b.Handle(driver.Message{Severity: driver.SeverityWarning, IDNumber: 2, IDName: "W", Text: "warn"})
	assert.Zero(t, errs)
	b.Handle(driver.Message{Severity: driver.SeverityError, IDNumber: 3, Text: "err"})
	assert.Equal(t, 1, errs)

	assert.Equal(t, []diag.Entry{
		{Level: diag.LevelInfo, Msg: "[1] : info"},
		{Level: diag.LevelWarning, Msg: "[2][W] : warn"},
		{Level: diag.LevelError, Msg: "[3] : err"},
	}, rec.Entries())
}

func TestBridgeDefaultIsFatal(t *testing.T) {
	var rec diag.Recorder
	b := NewBridge(&rec, nil)
	code := -1
	defer func(f func(diag.Sink, string)) { fatal = f }(fatal)
	fatal = func(s diag.Sink, msg string) {
		s.Log(diag.LevelError, msg)
		code = 1
	}

	b.Handle(driver.Message{Severity: driver.SeverityWarning, Text: "not fatal"})
	assert.Equal(t, -1, code)
	b.Handle(driver.Message{Severity: driver.SeverityError, Text: "fatal"})
	assert.Equal(t, 1, code)
	entries := rec.Entries()
	assert.Equal(t, "rhi: driver reported a validation error; aborting", entries[len(entries)-1].Msg)
}
