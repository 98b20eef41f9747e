package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CLUSTERMAP_"

// configKey is a path into Config, e.g. {"source", "reconnect-min"}.
type configKey []string

func (c configKey) EnvName() string {
	return envPrefix + strings.ReplaceAll(strings.ToUpper(c.FlagName()), "-", "_")
}

func (c configKey) AccessPath() string {
	return strings.ReplaceAll(strings.Join(c, "."), "-", "_")
}

func (c configKey) FlagName() string {
	return strings.Join(c, "-")
}

func keyOf(components ...string) configKey { return components }

// registry binds flags to viper keys.
type registry struct {
	v     *viper.Viper
	flags *pflag.FlagSet
	keys  map[string]configKey
}

func (r *registry) bind(key configKey, flagName string) {
	_ = r.v.BindPFlag(key.AccessPath(), r.flags.Lookup(flagName))
	r.keys[flagName] = key
}

func (r *registry) String(key configKey, value, usage string) {
	r.flags.String(key.FlagName(), value, usage)
	r.bind(key, key.FlagName())
	r.v.SetDefault(key.AccessPath(), value)
}

func (r *registry) Bool(key configKey, value bool, usage string) {
	r.flags.Bool(key.FlagName(), value, usage)
	r.bind(key, key.FlagName())
	r.v.SetDefault(key.AccessPath(), value)
}

func (r *registry) Float(key configKey, value float64, usage string) {
	r.flags.Float64(key.FlagName(), value, usage)
	r.bind(key, key.FlagName())
	r.v.SetDefault(key.AccessPath(), value)
}

func (r *registry) Int(key configKey, value int, usage string) {
	r.flags.Int(key.FlagName(), value, usage)
	r.bind(key, key.FlagName())
	r.v.SetDefault(key.AccessPath(), value)
}

func (r *registry) Duration(key configKey, value Duration, usage string) {
	r.String(key, time.Duration(value).String(), usage)
}

func (r *registry) StringSlice(key configKey, value []string, usage string) {
	r.flags.StringSlice(key.FlagName(), value, usage)
	r.bind(key, key.FlagName())
	r.v.SetDefault(key.AccessPath(), value)
}

// registerConfig declares a flag, env variable and default for every config value.
func registerConfig(v *viper.Viper, flags *pflag.FlagSet) *registry {
	v.SetTypeByDefaultValue(true)
	defaults := DefaultConfig()
	r := &registry{v: v, flags: flags, keys: make(map[string]configKey)}

	// Short names for the options used on every run.
	flags.String("config", "", "location of config file")
	r.bind(keyOf("config-file"), "config")
	v.SetDefault(keyOf("config-file").AccessPath(), "")
	flags.String("level", defaults.Log.Level,
		"set the logging level (can be one of: debug, info, warn, error, or fatal)")
	r.bind(keyOf("log", "level"), "level")
	v.SetDefault(keyOf("log", "level").AccessPath(), defaults.Log.Level)
	flags.Bool("color", defaults.Log.Color, "enable colored output")
	r.bind(keyOf("log", "color"), "color")
	v.SetDefault(keyOf("log", "color").AccessPath(), defaults.Log.Color)

	r.String(keyOf("source", "url"), defaults.Source.URL, "scheduler address the event stream is derived from")
	r.String(keyOf("source", "path"), defaults.Source.Path, "event stream path on the scheduler")
	r.Duration(keyOf("source", "reconnect-min"), defaults.Source.ReconnectMin, "first reconnect delay")
	r.Duration(keyOf("source", "reconnect-max"), defaults.Source.ReconnectMax, "longest reconnect delay")

	r.String(keyOf("http", "listen"), defaults.HTTP.Listen, "frame server listen address")

	r.Float(keyOf("viewport", "width"), defaults.Viewport.Width, "scene width in pixels")
	r.Float(keyOf("viewport", "height"), defaults.Viewport.Height, "scene height in pixels")

	r.String(keyOf("layout", "insert"), defaults.Layout.Insert, "worker insertion policy (random or append)")
	r.Float(keyOf("layout", "radius"), defaults.Layout.Radius, "ring radius in percent of the viewport")
	r.Float(keyOf("layout", "worker-radius"), defaults.Layout.WorkerRadius, "worker radius in pixels")
	r.Float(keyOf("layout", "coordinator-radius"), defaults.Layout.CoordinatorRadius,
		"coordinator radius in pixels")
	r.Duration(keyOf("layout", "duration"), defaults.Layout.Duration, "ring relayout animation length")

	r.Duration(keyOf("animation", "frame-interval"), defaults.Animation.FrameInterval, "frame publish interval")
	r.Duration(keyOf("animation", "flight"), defaults.Animation.Flight, "task projectile flight time")
	r.Duration(keyOf("animation", "color-offset"), defaults.Animation.ColorOffset, "delay before a task colors its worker")
	r.Duration(keyOf("animation", "color-duration"), defaults.Animation.ColorDuration, "task color fade length")

	r.String(keyOf("colors", "transfer"), defaults.Colors.Transfer, "transfer color")
	r.String(keyOf("colors", "swap"), defaults.Colors.Swap, "swap color")
	r.String(keyOf("colors", "killed"), defaults.Colors.Killed, "killed worker color")

	r.String(keyOf("transfers", "restore"), defaults.Transfers.Restore,
		"endpoint color restore policy (refcount or unconditional)")
	r.Duration(keyOf("transfers", "min-synthetic"), defaults.Transfers.MinSynthetic,
		"shortest synthetic transfer shown")
	r.Float(keyOf("transfers", "max-curvature"), defaults.Transfers.MaxCurvature, "largest arc bow in pixels")
	r.String(keyOf("transfers", "source"), defaults.Transfers.Source,
		"synthetic transfer source policy (random or first)")

	r.StringSlice(keyOf("plugins"), defaults.Plugins, "plugins to load")
	r.String(keyOf("record", "path"), defaults.Record.Path, "record dispatched events to this file")
	r.String(keyOf("snapshot", "path"), defaults.Snapshot.Path, "keep an svg of the live map at this path")
	r.Int(keyOf("snapshot", "every"), defaults.Snapshot.Every, "write the svg snapshot every n frames")
	return r
}

// bindEnv lets every registered flag be set from the environment.
func bindEnv(r *registry, cmd *cobra.Command) error {
	var errMsgs []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		key, ok := r.keys[flag.Name]
		if !ok {
			return
		}
		if err := r.v.BindEnv(key.AccessPath(), key.EnvName()); err != nil {
			err = errors.Wrapf(err, "failed to bind %s", key.EnvName())
			errMsgs = append(errMsgs, err.Error())
		}
	})
	if len(errMsgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errMsgs, ";"))
}
