// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gviegas/graphrunner/diag"
	"github.com/gviegas/graphrunner/driver"
	"github.com/gviegas/graphrunner/rhi"
)

// session is the state shared by a single command run.
type session struct {
	cfg  config
	sink *diag.FileSink
	plat driver.Platform
}

func newSession(cmd *cobra.Command, o *options) (*session, error) {
	cfg, err := o.resolve(cmd)
	if err != nil {
		return nil, err
	}
	sopts, err := cfg.sinkOptions()
	if err != nil {
		return nil, err
	}
	sopts.Console = cmd.ErrOrStderr()
	sopts.Stderr = cmd.ErrOrStderr()
	plat := driver.Lookup(cfg.Instance.Platform)
	if plat == nil {
		var names []string
		for _, p := range driver.Platforms() {
			names = append(names, p.Name())
		}
		return nil, fmt.Errorf("unknown platform %q (registered: %s)", cfg.Instance.Platform, strings.Join(names, ", "))
	}
	return &session{
		cfg:  cfg,
		sink: diag.NewFileSink(cfg.Log.Path, sopts),
		plat: plat,
	}, nil
}

func (s *session) close() {
	s.plat.Close()
	s.sink.Close()
}

// open opens the platform loader.
func (s *session) open() error {
	if err := s.plat.Open(); err != nil {
		return s.fail(fmt.Errorf("%w: %s: %w", rhi.ErrLoaderInit, s.plat.Name(), err), false)
	}
	return nil
}

// fail terminates the process if err is fatal.
// Otherwise it returns err. If logged is set, err was
// already written to s.sink and is not repeated.
func (s *session) fail(err error, logged bool) error {
	if rhi.IsFatal(err) {
		s.plat.Close()
		msg := err.Error()
		if logged {
			msg = "rhiinfo: aborting"
		}
		fatal(s.sink, msg)
	}
	return err
}

func newBootstrapCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create an instance against the selected profile",
		Long: `Bootstrap resolves the profile, negotiates the required instance
extensions and layers, creates an instance and, with --debug, attaches
a debug messenger. The negotiated instance is reported and destroyed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, o)
			if err != nil {
				return err
			}
			defer s.close()
			app, err := s.cfg.appInfo()
			if err != nil {
				return err
			}
			cat, err := s.cfg.catalog()
			if err != nil {
				return err
			}
			prof, err := s.cfg.profile(cat)
			if err != nil {
				return err
			}
			in, err := rhi.New(s.plat, app, s.cfg.requirements(),
				rhi.WithProfile(prof),
				rhi.WithSink(s.sink),
				rhi.WithDiagnostics(s.cfg.diagnostics()))
			if err != nil {
				// New logs its failures to s.sink.
				return s.fail(err, true)
			}
			defer in.Destroy()
			in.Report(s.sink)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "platform:   %s\n", s.plat.Name())
			fmt.Fprintf(w, "profile:    %v\n", in.Profile())
			fmt.Fprintf(w, "api:        %v\n", in.APIVersion())
			fmt.Fprintf(w, "extensions: %s\n", strings.Join(in.Extensions(), " "))
			fmt.Fprintf(w, "layers:     %s\n", strings.Join(in.Layers(), " "))
			fmt.Fprintf(w, "messenger:  %t\n", in.Messenger() != 0)
			fmt.Fprintf(w, "state:      %v\n", in.State())
			return nil
		},
	}
}

func newExtensionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List instance extensions",
		Long: `Extensions lists the instance extensions the platform advertises.
Names the configuration requires are marked with '*'; required names
that are not advertised are listed last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, o)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.open(); err != nil {
				return err
			}
			cat, err := s.cfg.catalog()
			if err != nil {
				return err
			}
			prof, err := s.cfg.profile(cat)
			if err != nil {
				return err
			}
			required := s.cfg.requirements().Extensions
			if prof != nil {
				pexts, err := s.plat.ProfileExtensions(prof)
				if err != nil {
					return err
				}
				required = append(required, pexts...)
			}
			if s.cfg.diagnostics() {
				required = append(required, rhi.DebugUtilsExtension)
			}
			v, err := s.plat.InstanceVersion()
			if err != nil {
				return err
			}
			avail, err := s.plat.InstanceExtensions()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s instance version %v\n", s.plat.Name(), v)
			return printNames(w, rhi.KindExtension, avail, required)
		},
	}
}

func newLayersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List instance layers",
		Long: `Layers lists the installed instance layers.
Names the configuration requires are marked with '*'; required names
that are not installed are listed last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, o)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.open(); err != nil {
				return err
			}
			required := s.cfg.requirements().Layers
			if s.cfg.diagnostics() {
				required = append(required, rhi.ValidationLayer)
			}
			avail, err := s.plat.InstanceLayers()
			if err != nil {
				return err
			}
			return printNames(cmd.OutOrStdout(), rhi.KindLayer, avail, required)
		},
	}
}

func newProfilesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List known profiles and whether the platform supports them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, o)
			if err != nil {
				return err
			}
			defer s.close()
			cat, err := s.cfg.catalog()
			if err != nil {
				return err
			}
			open := s.plat.Open() == nil
			if !open {
				s.sink.Log(diag.LevelWarning, fmt.Sprintf("%s is not installed, support is unknown", s.plat.Name()))
			}
			w := cmd.OutOrStdout()
			for _, p := range cat.Profiles() {
				sup := "?"
				if open {
					ok, err := s.plat.ProfileSupport(p)
					switch {
					case err != nil:
						s.sink.Log(diag.LevelWarning, fmt.Sprintf("%v: %v", p, err))
					case ok:
						sup = "supported"
					default:
						sup = "unsupported"
					}
				}
				fmt.Fprintf(w, "%-36s v%-3d %-10v %s\n", p.Name, p.SpecVersion, p.MinAPIVersion, sup)
			}
			return nil
		},
	}
}

// printNames writes avail, marking the names in required,
// followed by the required names that avail lacks.
// The returned error, if any, is a *rhi.MissingError.
func printNames(w io.Writer, kind string, avail, required []string) error {
	req := make(map[string]bool, len(required))
	for _, r := range required {
		req[r] = true
	}
	have := make(map[string]bool, len(avail))
	for _, a := range avail {
		have[a] = true
		mark := " "
		if req[a] {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\n", mark, a)
	}
	fmt.Fprintf(w, "%d %s(s)\n", len(avail), kind)

	var missing []string
	seen := make(map[string]bool, len(required))
	for _, r := range required {
		if !have[r] && !seen[r] {
			missing = append(missing, r)
			seen[r] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}
	for _, m := range missing {
		fmt.Fprintf(w, "! %s\n", m)
	}
	return &rhi.MissingError{Kind: kind, Names: missing, Requested: len(required), Available: len(avail)}
}
