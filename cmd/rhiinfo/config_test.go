// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
	"github.com/gviegas/graphrunner/profile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, profile.DefaultName, cfg.Profile.Name)
	assert.Equal(t, "vulkan", cfg.Instance.Platform)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "c.toml", `
[app]
name = "demo"
version = "2.1.3"

[instance]
layers = ["L1"]
surface = true
debug = true

[log]
level = "warning"
no_color = true
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.App.Name)
	assert.Equal(t, "graphrunner", cfg.App.Engine, "unset keys keep their defaults")
	assert.Equal(t, []string{"L1"}, cfg.Instance.Layers)
	assert.True(t, cfg.Instance.Surface)
	require.NotNil(t, cfg.Instance.Debug)
	assert.True(t, cfg.diagnostics())

	app, err := cfg.appInfo()
	require.NoError(t, err)
	assert.Equal(t, driver.MakeVersion(2, 1, 3), app.Version)
	assert.Equal(t, driver.Version1_0, app.APIVersion)

	opts, err := cfg.sinkOptions()
	require.NoError(t, err)
	assert.Equal(t, diag.LevelWarning, opts.MinLevel)
	assert.True(t, opts.NoColor)

	req := cfg.requirements()
	assert.Equal(t, []string{"L1"}, req.Layers)
	assert.Contains(t, req.Extensions, "VK_KHR_surface")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(writeFile(t, "bad.toml", "[app\nname="))
	assert.ErrorContains(t, err, "failed to parse TOML")

	_, err = loadConfig(writeFile(t, "unknown.toml", "[app]\nnmae = \"typo\"\n[extra]\nx = 1\n"))
	assert.ErrorContains(t, err, "unknown keys")
	assert.ErrorContains(t, err, "app.nmae")
	assert.ErrorContains(t, err, "extra.x")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	cfg := defaultConfig()
	cfg.App.APIVersion = "one"
	_, err = cfg.appInfo()
	assert.ErrorContains(t, err, "app.api_version")

	cfg = defaultConfig()
	cfg.Log.Level = "loud"
	_, err = cfg.sinkOptions()
	assert.ErrorContains(t, err, "log.level")
}

func TestConfigProfile(t *testing.T) {
	cat := profile.Builtin()
	cfg := defaultConfig()

	p, err := cfg.profile(cat)
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultName, p.Name)

	for _, name := range []string{"", noProfile} {
		cfg.Profile.Name = name
		p, err = cfg.profile(cat)
		require.NoError(t, err)
		assert.Nil(t, p)
	}

	cfg.Profile.Name = "VP_KHR_roadmap_2022:1"
	p, err = cfg.profile(cat)
	require.NoError(t, err)
	assert.Equal(t, "VP_KHR_roadmap_2022 v1", p.String())

	cfg.Profile.Name = "VP_KHR_roadmap_2022:9"
	_, err = cfg.profile(cat)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	cfg.Profile.Name = "VP_KHR_roadmap_2022:x"
	_, err = cfg.profile(cat)
	assert.ErrorContains(t, err, "invalid spec version")
}

func TestConfigCatalog(t *testing.T) {
	cfg := defaultConfig()
	cfg.Profile.Catalog = writeFile(t, "profiles.yaml", `
profiles:
  - name: VP_GR_custom
    spec_version: 2
    min_api_version: "1.2"
    extensions: [VK_KHR_surface]
`)
	cfg.Profile.Name = "VP_GR_custom"
	cat, err := cfg.catalog()
	require.NoError(t, err)
	p, err := cfg.profile(cat)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), p.SpecVersion)
	assert.Equal(t, driver.Version1_2, p.MinAPIVersion)
	assert.Equal(t, []string{"VK_KHR_surface"}, p.Extensions)
	assert.Contains(t, cat.Names(), profile.DefaultName, "built-in profiles remain")

	cfg.Profile.Catalog = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.catalog()
	assert.Error(t, err)
}
