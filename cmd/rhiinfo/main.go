// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Rhiinfo queries the instance capabilities of a graphics
// platform and bootstraps an instance against a profile.
//
// Usage:
//
//	rhiinfo bootstrap [flags]
//	rhiinfo extensions [flags]
//	rhiinfo layers [flags]
//	rhiinfo profiles [flags]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gviegas/graphrunner/diag"
)

// fatal terminates the process. Tests replace it.
var fatal = diag.Fatal

// options holds the values of the persistent flags.
type options struct {
	config   string
	profile  string
	exts     []string
	layers   []string
	debug    bool
	log      string
	level    string
	surface  bool
	platform string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	opts := new(options)
	root := &cobra.Command{
		Use:           "rhiinfo",
		Short:         "Query and bootstrap graphics API instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.config, "config", "", "TOML configuration file")
	pf.StringVar(&opts.profile, "profile", "", `profile name[:spec version], or "none"`)
	pf.StringSliceVar(&opts.exts, "ext", nil, "required instance extension (repeatable)")
	pf.StringSliceVar(&opts.layers, "layer", nil, "required instance layer (repeatable)")
	pf.BoolVar(&opts.debug, "debug", false, "attach the validation layer and debug messenger")
	pf.StringVar(&opts.log, "log", "", "log file path")
	pf.StringVar(&opts.level, "level", "", "minimum log level (verbose|info|warning|error)")
	pf.BoolVar(&opts.surface, "surface", false, "require the platform surface extensions")
	pf.StringVar(&opts.platform, "platform", "", "platform name")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newBootstrapCmd(opts),
		newExtensionsCmd(opts),
		newLayersCmd(opts),
		newProfilesCmd(opts),
	)
	return root
}

// resolve loads the configuration file and applies the
// flags that were set over it.
func (o *options) resolve(cmd *cobra.Command) (config, error) {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.Profile.Name = o.profile
	}
	cfg.Instance.Extensions = append(cfg.Instance.Extensions, o.exts...)
	cfg.Instance.Layers = append(cfg.Instance.Layers, o.layers...)
	if flags.Changed("debug") {
		cfg.Instance.Debug = &o.debug
	}
	if flags.Changed("log") {
		cfg.Log.Path = o.log
	}
	if flags.Changed("level") {
		cfg.Log.Level = o.level
	}
	if flags.Changed("surface") {
		cfg.Instance.Surface = o.surface
	}
	if flags.Changed("platform") {
		cfg.Instance.Platform = o.platform
	}
	if flags.Changed("no-color") {
		cfg.Log.NoColor = o.noColor
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rhiinfo:", err)
		os.Exit(1)
	}
}
