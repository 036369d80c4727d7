// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package profile provides catalogs of capability profiles.
//
// A catalog is a YAML document of the form:
//
//	profiles:
//	  - name: VP_KHR_roadmap_2024
//	    spec_version: 1
//	    min_api_version: "1.3.276"
//	    extensions: [VK_KHR_surface]
//
// The built-in catalog is embedded in the package.
package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gviegas/graphrunner/driver"
)

// DefaultName is the name of the profile used when the
// application does not choose one.
const DefaultName = "VP_KHR_roadmap_2024"

// DefaultSpecVersion is the spec version of DefaultName.
const DefaultSpecVersion = 1

// ErrNotFound means that a catalog has no profile with the
// requested name and spec version.
var ErrNotFound = errors.New("profile: not found")

//go:embed profiles.yaml
var builtinYAML []byte

type entry struct {
	Name          string   `yaml:"name"`
	SpecVersion   uint32   `yaml:"spec_version"`
	MinAPIVersion string   `yaml:"min_api_version"`
	Extensions    []string `yaml:"extensions"`
}

type document struct {
	Profiles []entry `yaml:"profiles"`
}

// Catalog is a set of profiles indexed by name.
// Several spec versions of the same profile may coexist.
type Catalog struct {
	byName map[string][]*driver.Profile
}

// Load parses a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Catalog{byName: map[string][]*driver.Profile{}}, nil
		}
		return nil, fmt.Errorf("profile: decode catalog: %w", err)
	}
	c := &Catalog{byName: make(map[string][]*driver.Profile, len(doc.Profiles))}
	for i, e := range doc.Profiles {
		if e.Name == "" {
			return nil, fmt.Errorf("profile: entry %d has no name", i)
		}
		if e.SpecVersion == 0 {
			return nil, fmt.Errorf("profile: %s: spec_version must be positive", e.Name)
		}
		v, err := driver.ParseVersion(e.MinAPIVersion)
		if err != nil {
			return nil, fmt.Errorf("profile: %s: %w", e.Name, err)
		}
		p := &driver.Profile{
			Name:          e.Name,
			SpecVersion:   e.SpecVersion,
			MinAPIVersion: v,
			Extensions:    append([]string(nil), e.Extensions...),
		}
		if err := c.add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadFile parses a catalog from the named file.
func LoadFile(name string) (*Catalog, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// add inserts p keeping versions sorted in descending order.
func (c *Catalog) add(p *driver.Profile) error {
	ps := c.byName[p.Name]
	for _, x := range ps {
		if x.SpecVersion == p.SpecVersion {
			return fmt.Errorf("profile: duplicate %s", p)
		}
	}
	ps = append(ps, p)
	sort.Slice(ps, func(i, j int) bool { return ps[i].SpecVersion > ps[j].SpecVersion })
	c.byName[p.Name] = ps
	return nil
}

// Merge adds every profile of other to c.
// Profiles of other replace those of c that have the same
// name and spec version.
func (c *Catalog) Merge(other *Catalog) {
	for name, ps := range other.byName {
		for _, p := range ps {
			var cur []*driver.Profile
			for _, x := range c.byName[name] {
				if x.SpecVersion != p.SpecVersion {
					cur = append(cur, x)
				}
			}
			c.byName[name] = cur
			// Cannot fail: duplicates were just removed.
			_ = c.add(p)
		}
	}
}

// Lookup returns a copy of the named profile.
// A specVersion of zero selects the newest one.
func (c *Catalog) Lookup(name string, specVersion uint32) (*driver.Profile, error) {
	for _, p := range c.byName[name] {
		if specVersion == 0 || p.SpecVersion == specVersion {
			q := *p
			q.Extensions = append([]string(nil), p.Extensions...)
			return &q, nil
		}
	}
	if specVersion == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, name, specVersion)
}

// Names returns the profile names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns copies of every profile, ordered by name
// and then by descending spec version.
func (c *Catalog) Profiles() []*driver.Profile {
	var ps []*driver.Profile
	for _, name := range c.Names() {
		for _, p := range c.byName[name] {
			q := *p
			q.Extensions = append([]string(nil), p.Extensions...)
			ps = append(ps, &q)
		}
	}
	return ps
}

// Builtin returns a new catalog holding the embedded
// profiles.
func Builtin() *Catalog {
	c, err := Load(bytes.NewReader(builtinYAML))
	if err != nil {
		panic("profile: malformed built-in catalog: " + err.Error())
	}
	return c
}

// Default returns the default profile from the built-in
// catalog.
func Default() *driver.Profile {
	p, err := Builtin().Lookup(DefaultName, DefaultSpecVersion)
	if err != nil {
		panic(err)
	}
	return p
}
