// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
	"github.com/gviegas/graphrunner/driver/vk"
	"github.com/gviegas/graphrunner/profile"
	"github.com/gviegas/graphrunner/rhi"
)

// noProfile disables profile resolution.
const noProfile = "none"

// config is the contents of a rhiinfo TOML file.
type config struct {
	App      appConfig      `toml:"app"`
	Profile  profileConfig  `toml:"profile"`
	Instance instanceConfig `toml:"instance"`
	Log      logConfig      `toml:"log"`
}

type appConfig struct {
	Name          string `toml:"name"`
	Version       string `toml:"version"`
	Engine        string `toml:"engine"`
	EngineVersion string `toml:"engine_version"`
	APIVersion    string `toml:"api_version"`
}

type profileConfig struct {
	// Name is a profile name, optionally followed by
	// ":<spec version>", or "none".
	Name string `toml:"name"`

	// Catalog is a YAML file merged over the built-in
	// catalog.
	Catalog string `toml:"catalog"`
}

type instanceConfig struct {
	Platform   string   `toml:"platform"`
	Extensions []string `toml:"extensions"`
	Layers     []string `toml:"layers"`
	Surface    bool     `toml:"surface"`

	// Debug overrides rhi.DiagnosticsEnabled when set.
	Debug *bool `toml:"debug"`
}

type logConfig struct {
	Path    string `toml:"path"`
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
	Append  bool   `toml:"append"`
}

func defaultConfig() config {
	return config{
		App: appConfig{
			Name:       "rhiinfo",
			Version:    "0.1.0",
			Engine:     "graphrunner",
			APIVersion: "1.0",
		},
		Profile:  profileConfig{Name: profile.DefaultName},
		Instance: instanceConfig{Platform: "vulkan"},
		Log:      logConfig{Level: "info"},
	}
}

// loadConfig decodes the named TOML file over the default
// configuration. Unknown keys are an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// appInfo converts c.App.
func (c *config) appInfo() (rhi.AppInfo, error) {
	var info rhi.AppInfo
	info.Name = c.App.Name
	info.EngineName = c.App.Engine
	for _, x := range []struct {
		key string
		s   string
		v   *driver.Version
	}{
		{"app.version", c.App.Version, &info.Version},
		{"app.engine_version", c.App.EngineVersion, &info.EngineVersion},
		{"app.api_version", c.App.APIVersion, &info.APIVersion},
	} {
		if x.s == "" {
			continue
		}
		v, err := driver.ParseVersion(x.s)
		if err != nil {
			return rhi.AppInfo{}, fmt.Errorf("%s: %w", x.key, err)
		}
		*x.v = v
	}
	return info, nil
}

// catalog returns the built-in catalog merged with
// c.Profile.Catalog, if any.
func (c *config) catalog() (*profile.Catalog, error) {
	cat := profile.Builtin()
	if c.Profile.Catalog != "" {
		user, err := profile.LoadFile(c.Profile.Catalog)
		if err != nil {
			return nil, err
		}
		cat.Merge(user)
	}
	return cat, nil
}

// profile looks up c.Profile.Name in cat.
// It returns nil if profiles are disabled.
func (c *config) profile(cat *profile.Catalog) (*driver.Profile, error) {
	name := c.Profile.Name
	if name == "" || name == noProfile {
		return nil, nil
	}
	var spec uint32
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		n, err := strconv.ParseUint(name[i+1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("profile %q: invalid spec version", name)
		}
		name, spec = name[:i], uint32(n)
	}
	return cat.Lookup(name, spec)
}

// requirements returns the application's instance
// requirements.
func (c *config) requirements() rhi.Requirements {
	req := rhi.Requirements{
		Extensions: append([]string(nil), c.Instance.Extensions...),
		Layers:     append([]string(nil), c.Instance.Layers...),
	}
	if c.Instance.Surface {
		// VK_KHR_surface and the preferred platform surface.
		surf := vk.SurfaceExtensions()
		if len(surf) > 2 {
			surf = surf[:2]
		}
		req.Extensions = append(req.Extensions, surf...)
	}
	req.Extensions = append(req.Extensions, vk.PortabilityExtensions()...)
	return req
}

// diagnostics returns whether the debug messenger is used.
func (c *config) diagnostics() bool {
	if c.Instance.Debug != nil {
		return *c.Instance.Debug
	}
	return rhi.DiagnosticsEnabled
}

// sinkOptions returns the options of the log sink.
func (c *config) sinkOptions() (*diag.Options, error) {
	lvl, err := diag.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	return &diag.Options{
		NoColor:  c.Log.NoColor,
		MinLevel: lvl,
		Append:   c.Log.Append,
	}, nil
}
