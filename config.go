package main

import (
	"encoding/json"
	"math/rand"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Readm/cluster_map/visual"
)

// Duration is a time.Duration that reads "500ms" style strings or integer nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		if value == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			// Viper hands integer file values for string-typed keys back as digits.
			ns, perr := strconv.ParseInt(value, 10, 64)
			if perr != nil {
				return errors.Wrapf(err, "invalid duration %q", value)
			}
			parsed = time.Duration(ns)
		}
		*d = Duration(parsed)
	default:
		return errors.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// LogConfig configures logrus.
type LogConfig struct {
	Level string `json:"level"`
	Color bool   `json:"color"`
}

// SourceConfig locates the scheduler event stream.
type SourceConfig struct {
	URL          string   `json:"url"`
	Path         string   `json:"path"`
	ReconnectMin Duration `json:"reconnect_min"`
	ReconnectMax Duration `json:"reconnect_max"`
}

// HTTPConfig configures the frame server.
type HTTPConfig struct {
	Listen string `json:"listen"`
}

// ViewportConfig is the scene size in pixels.
type ViewportConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutConfig shapes the worker ring.
type LayoutConfig struct {
	Insert            string   `json:"insert"`
	Radius            float64  `json:"radius"`
	WorkerRadius      float64  `json:"worker_radius"`
	CoordinatorRadius float64  `json:"coordinator_radius"`
	Duration          Duration `json:"duration"`
}

// AnimationConfig holds frame and task animation timing.
type AnimationConfig struct {
	FrameInterval Duration `json:"frame_interval"`
	Flight        Duration `json:"flight"`
	ColorOffset   Duration `json:"color_offset"`
	ColorDuration Duration `json:"color_duration"`
}

// ColorsConfig holds state colors.
type ColorsConfig struct {
	Transfer string `json:"transfer"`
	Swap     string `json:"swap"`
	Killed   string `json:"killed"`
}

// TransfersConfig tunes transfer arcs.
type TransfersConfig struct {
	Restore      string   `json:"restore"`
	MinSynthetic Duration `json:"min_synthetic"`
	MaxCurvature float64  `json:"max_curvature"`
	Source       string   `json:"source"`
}

// RecordConfig enables the event recorder.
type RecordConfig struct {
	Path string `json:"path"`
}

// SnapshotConfig keeps an SVG of the live map on disk.
type SnapshotConfig struct {
	Path  string `json:"path"`
	Every int    `json:"every"`
}

// Config is the full clustermap configuration.
type Config struct {
	ConfigFile string `json:"config_file"`

	Log       LogConfig       `json:"log"`
	Source    SourceConfig    `json:"source"`
	HTTP      HTTPConfig      `json:"http"`
	Viewport  ViewportConfig  `json:"viewport"`
	Layout    LayoutConfig    `json:"layout"`
	Animation AnimationConfig `json:"animation"`
	Colors    ColorsConfig    `json:"colors"`
	Transfers TransfersConfig `json:"transfers"`
	Plugins   []string        `json:"plugins"`
	Record    RecordConfig    `json:"record"`
	Snapshot  SnapshotConfig  `json:"snapshot"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	style := visual.DefaultStyle()
	return &Config{
		Log: LogConfig{Level: "info", Color: true},
		Source: SourceConfig{
			URL:          "http://127.0.0.1:8787",
			Path:         "/eventstream",
			ReconnectMin: Duration(500 * time.Millisecond),
			ReconnectMax: Duration(30 * time.Second),
		},
		HTTP:     HTTPConfig{Listen: "127.0.0.1:8080"},
		Viewport: ViewportConfig{Width: 800, Height: 600},
		Layout: LayoutConfig{
			Insert:            "random",
			Radius:            style.Radius,
			WorkerRadius:      style.WorkerRadius,
			CoordinatorRadius: style.CoordinatorRadius,
			Duration:          Duration(style.LayoutDuration),
		},
		Animation: AnimationConfig{
			FrameInterval: Duration(50 * time.Millisecond),
			Flight:        Duration(style.FlightDuration),
			ColorOffset:   Duration(style.ColorOffset),
			ColorDuration: Duration(style.ColorDuration),
		},
		Colors: ColorsConfig{
			Transfer: style.TransferColor,
			Swap:     style.SwapColor,
			Killed:   style.KilledColor,
		},
		Transfers: TransfersConfig{
			Restore:      string(style.Restore),
			MinSynthetic: Duration(style.MinSyntheticTransfer),
			MaxCurvature: style.MaxCurvature,
			Source:       "random",
		},
		Plugins:  []string{"instrumentation/metrics", "visualization/web"},
		Snapshot: SnapshotConfig{Every: 20},
	}
}

// Validate returns every problem with the configuration.
func (c Config) Validate() []error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.Wrap(err, "log.level"))
	}
	if u, err := url.Parse(c.Source.URL); err != nil || u.Host == "" {
		errs = append(errs, errors.Errorf("source.url %q is not an absolute url", c.Source.URL))
	}
	if c.Source.ReconnectMin <= 0 {
		errs = append(errs, errors.New("source.reconnect_min must be positive"))
	}
	if c.Source.ReconnectMax < c.Source.ReconnectMin {
		errs = append(errs, errors.New("source.reconnect_max must not be below reconnect_min"))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, errors.New("viewport width and height must be positive"))
	}
	if _, ok := visual.InsertPolicyByName(c.Layout.Insert, nil); !ok {
		errs = append(errs, errors.Errorf("layout.insert %q must be random or append", c.Layout.Insert))
	}
	if c.Layout.Radius <= 0 || c.Layout.Radius > 50 {
		errs = append(errs, errors.New("layout.radius must be in (0, 50]"))
	}
	if c.Layout.WorkerRadius <= 0 || c.Layout.CoordinatorRadius <= 0 {
		errs = append(errs, errors.New("layout radii must be positive"))
	}
	if c.Animation.FrameInterval <= 0 {
		errs = append(errs, errors.New("animation.frame_interval must be positive"))
	}
	for name, d := range map[string]Duration{
		"layout.duration":          c.Layout.Duration,
		"animation.flight":         c.Animation.Flight,
		"animation.color_offset":   c.Animation.ColorOffset,
		"animation.color_duration": c.Animation.ColorDuration,
		"transfers.min_synthetic":  c.Transfers.MinSynthetic,
	} {
		if d < 0 {
			errs = append(errs, errors.Errorf("%s must not be negative", name))
		}
	}
	switch visual.RestorePolicy(c.Transfers.Restore) {
	case visual.RestoreRefCount, visual.RestoreUnconditional:
	default:
		errs = append(errs, errors.Errorf("transfers.restore %q must be refcount or unconditional",
			c.Transfers.Restore))
	}
	if c.Transfers.MaxCurvature < 0 {
		errs = append(errs, errors.New("transfers.max_curvature must not be negative"))
	}
	if c.Snapshot.Every < 0 {
		errs = append(errs, errors.New("snapshot.every must not be negative"))
	}
	if _, ok := visual.SourcePickerByName(c.Transfers.Source, nil); !ok {
		errs = append(errs, errors.Errorf("transfers.source %q must be random or first", c.Transfers.Source))
	}
	return errs
}

func validate(c *Config) error {
	var result *multierror.Error
	for _, err := range c.Validate() {
		result = multierror.Append(result, err)
	}
	return errors.Wrap(result.ErrorOrNil(), "invalid configuration")
}

// Style maps the configuration onto controller styling.
func (c Config) Style() visual.Style {
	style := visual.DefaultStyle()
	style.Radius = c.Layout.Radius
	style.WorkerRadius = c.Layout.WorkerRadius
	style.CoordinatorRadius = c.Layout.CoordinatorRadius
	style.LayoutDuration = time.Duration(c.Layout.Duration)
	style.FlightDuration = time.Duration(c.Animation.Flight)
	style.ColorOffset = time.Duration(c.Animation.ColorOffset)
	style.ColorDuration = time.Duration(c.Animation.ColorDuration)
	style.TransferColor = c.Colors.Transfer
	style.SwapColor = c.Colors.Swap
	style.KilledColor = c.Colors.Killed
	style.Restore = visual.RestorePolicy(c.Transfers.Restore)
	style.MinSyntheticTransfer = time.Duration(c.Transfers.MinSynthetic)
	style.MaxCurvature = c.Transfers.MaxCurvature
	return style
}

// Policies builds the insertion and synthetic source policies.
func (c Config) Policies(rng *rand.Rand) (visual.InsertPolicy, visual.SourcePicker) {
	insert, ok := visual.InsertPolicyByName(c.Layout.Insert, rng)
	if !ok {
		insert = visual.RandomInsert{Rand: rng}
	}
	sources, ok := visual.SourcePickerByName(c.Transfers.Source, rng)
	if !ok {
		sources = visual.RandomSource{Rand: rng}
	}
	return insert, sources
}

// initializeConfig resolves flags, env and the config file into a validated config.
func initializeConfig(v *viper.Viper) (*Config, error) {
	initial, err := getConfig(v.AllSettings())
	if err != nil {
		return nil, err
	}
	bs, err := readConfigFile(initial.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := mergeConfigBytesIntoViper(v, bs); err != nil {
		return nil, err
	}
	config, err := getConfig(v.AllSettings())
	if err != nil {
		return nil, err
	}
	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func readConfigFile(configPath string) ([]byte, error) {
	if configPath == "" {
		return nil, nil
	}
	bs, err := os.ReadFile(configPath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "error reading configuration file")
	}
	return bs, nil
}

func mergeConfigBytesIntoViper(v *viper.Viper, bs []byte) error {
	if len(bs) == 0 {
		return nil
	}
	var configMap map[string]interface{}
	if err := yaml.Unmarshal(bs, &configMap); err != nil {
		return errors.Wrap(err, "error unmarshal yaml configuration file")
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return errors.Wrap(err, "error merge configuration to viper")
	}
	return nil
}

func getConfig(configMap map[string]interface{}) (*Config, error) {
	bs, err := json.Marshal(configMap)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal configuration map into json bytes")
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(bs, config, yaml.DisallowUnknownFields); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal configuration")
	}
	return config, nil
}
