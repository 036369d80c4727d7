// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build rhidebug

package rhi

// DiagnosticsEnabled is the default for WithDiagnostics.
// Build with -tags rhidebug to turn diagnostics on.
const DiagnosticsEnabled = true
