// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/graphrunner/driver"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	names := c.Names()
	require.NotEmpty(t, names)
	assert.Contains(t, names, DefaultName)
	assert.Contains(t, names, "VP_KHR_roadmap_2022")
	assert.IsIncreasing(t, names)

	p := Default()
	assert.Equal(t, DefaultName, p.Name)
	assert.Equal(t, uint32(DefaultSpecVersion), p.SpecVersion)
	assert.Equal(t, driver.MakeVersion(1, 3, 276), p.MinAPIVersion)
}

func TestLoad(t *testing.T) {
	const doc = `
profiles:
  - name: VP_TEST_profile
    spec_version: 1
    min_api_version: "1.1"
    extensions: [ext.c]
  - name: VP_TEST_profile
    spec_version: 3
    min_api_version: "1.2.0"
    extensions: [ext.c, ext.d]
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	p, err := c.Lookup("VP_TEST_profile", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), p.SpecVersion, "zero spec version must pick the newest")
	assert.Equal(t, []string{"ext.c", "ext.d"}, p.Extensions)

	p, err = c.Lookup("VP_TEST_profile", 1)
	require.NoError(t, err)
	assert.Equal(t, driver.Version1_1, p.MinAPIVersion)
	assert.Equal(t, []string{"ext.c"}, p.Extensions)

	// Lookup hands out copies.
	p.Extensions[0] = "mutated"
	q, _ := c.Lookup("VP_TEST_profile", 1)
	assert.Equal(t, "ext.c", q.Extensions[0])

	_, err = c.Lookup("VP_TEST_profile", 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Lookup("VP_missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, c.Profiles(), 2)
}

func TestLoadInvalid(t *testing.T) {
	for _, doc := range []string{
		"profiles:\n  - spec_version: 1\n    min_api_version: \"1.0\"\n",
		"profiles:\n  - name: P\n    min_api_version: \"1.0\"\n",
		"profiles:\n  - name: P\n    spec_version: 1\n    min_api_version: \"x\"\n",
		"profiles:\n  - name: P\n    spec_version: 1\n    min_api_version: \"1.0\"\n  - name: P\n    spec_version: 1\n    min_api_version: \"1.1\"\n",
		"profiles:\n  - name: P\n    spec_version: 1\n    min_api_version: \"1.0\"\n    unknown: true\n",
	} {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Errorf("Load(%q)\nhave nil error\nwant non-nil", doc)
		}
	}

	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Names())
}

func TestMerge(t *testing.T) {
	c := Builtin()
	other, err := Load(strings.NewReader(`
profiles:
  - name: VP_KHR_roadmap_2024
    spec_version: 1
    min_api_version: "1.3.300"
  - name: VP_TEST_extra
    spec_version: 1
    min_api_version: "1.0"
`))
	require.NoError(t, err)
	n := len(c.Profiles())
	c.Merge(other)
	assert.Len(t, c.Profiles(), n+1)

	p, err := c.Lookup(DefaultName, DefaultSpecVersion)
	require.NoError(t, err)
	assert.Equal(t, driver.MakeVersion(1, 3, 300), p.MinAPIVersion)
	_, err = c.Lookup("VP_TEST_extra", 1)
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(name, []byte("profiles:\n  - name: P\n    spec_version: 2\n    min_api_version: \"1.2\"\n"), 0o644))
	c, err := LoadFile(name)
	require.NoError(t, err)
	p, err := c.Lookup("P", 0)
	require.NoError(t, err)
	assert.Equal(t, "P v2", p.String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
