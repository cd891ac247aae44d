// Package config declares the vibectx runtime options.
//
// Options are plain data: Default returns the baseline, New fills zero
// fields and validates, Load reads the optional YAML file. No other
// package reads the environment or the filesystem for configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/vibex/vibectx/internal/scope"
)

// EnvConfigPath names the environment variable pointing at an
// alternative config file.
const EnvConfigPath = "VIBECTX_CONFIG"

const defaultConfigName = "config.yaml"

// Duration parses YAML scalars like "5m" or "750ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Discovery bounds one discovery tier.
type Discovery struct {
	IncludePatterns []string `yaml:"include"`
	ExcludePatterns []string `yaml:"exclude"`
	MaxDepth        int      `yaml:"max_depth"`
	MaxFiles        int      `yaml:"max_files"`
	MaxFileSize     int64    `yaml:"max_file_size"`
}

// Limits bounds the composed document for one mode. Zero fields take
// the mode's default; negative values mean unbounded.
type Limits struct {
	MaxEntries int   `yaml:"max_entries"`
	MaxBytes   int64 `yaml:"max_bytes"`
}

// Options is the complete runtime configuration.
type Options struct {
	// Candidates are the context filenames probed by the tiered
	// loaders, in probe order.
	Candidates []string `yaml:"candidates"`
	// GlobalDir holds machine-wide context files. Empty disables the
	// global tier.
	GlobalDir   string `yaml:"global_dir"`
	MaxUpLevels int    `yaml:"max_up_levels"`

	Discovery     Discovery `yaml:"discovery"`
	FullDiscovery Discovery `yaml:"full_discovery"`

	StandardLimits Limits `yaml:"standard_limits"`
	FullLimits     Limits `yaml:"full_limits"`

	StandardTTL Duration `yaml:"standard_ttl"`
	FullTTL     Duration `yaml:"full_ttl"`

	Watch         bool     `yaml:"watch"`
	WatchDebounce Duration `yaml:"watch_debounce"`

	// Snapshots archives every successful composition in the SQLite
	// store under DataDir.
	Snapshots bool   `yaml:"snapshots"`
	DataDir   string `yaml:"data_dir"`

	LogLevel string `yaml:"log_level"`
}

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
	"fatal": {},
}

// Default returns the baseline configuration.
func Default() Options {
	home, _ := os.UserHomeDir()
	vibexDir := ""
	if home != "" {
		vibexDir = filepath.Join(home, ".vibex")
	}
	return Options{
		Candidates:  scope.DefaultCandidates(),
		GlobalDir:   vibexDir,
		MaxUpLevels: 10,
		Discovery: Discovery{
			IncludePatterns: []string{"**/*.md"},
			MaxDepth:        5,
			MaxFiles:        40,
			MaxFileSize:     256 * 1024,
		},
		FullDiscovery: Discovery{
			IncludePatterns: []string{
				"**/*.go", "**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx",
				"**/*.py", "**/*.rs", "**/*.java", "**/*.rb",
				"**/*.md", "**/*.json", "**/*.yaml", "**/*.yml", "**/*.toml",
				"**/*.txt",
			},
			MaxDepth:    8,
			MaxFiles:    200,
			MaxFileSize: 512 * 1024,
		},
		StandardLimits: Limits{MaxEntries: 50, MaxBytes: 512 * 1024},
		FullLimits:     Limits{MaxEntries: 100, MaxBytes: 256 * 1024},
		StandardTTL:    Duration(5 * time.Minute),
		FullTTL:        Duration(2 * time.Minute),
		Watch:          true,
		WatchDebounce:  Duration(500 * time.Millisecond),
		Snapshots:      true,
		DataDir:        vibexDir,
		LogLevel:       "info",
	}
}

// New fills zero fields from Default and validates the result. An
// empty GlobalDir is kept as-is: it disables the global tier. Bool
// fields are taken at face value.
func New(opts Options) (Options, error) {
	def := Default()

	opts.Candidates = normalizeCandidates(opts.Candidates, def.Candidates)
	if opts.MaxUpLevels == 0 {
		opts.MaxUpLevels = def.MaxUpLevels
	}
	opts.Discovery = fillDiscovery(opts.Discovery, def.Discovery)
	opts.FullDiscovery = fillDiscovery(opts.FullDiscovery, def.FullDiscovery)
	opts.StandardLimits = fillLimits(opts.StandardLimits, def.StandardLimits)
	opts.FullLimits = fillLimits(opts.FullLimits, def.FullLimits)
	if opts.StandardTTL == 0 {
		opts.StandardTTL = def.StandardTTL
	}
	if opts.FullTTL == 0 {
		opts.FullTTL = def.FullTTL
	}
	if opts.WatchDebounce == 0 {
		opts.WatchDebounce = def.WatchDebounce
	}
	if opts.DataDir == "" {
		opts.DataDir = def.DataDir
	}
	opts.LogLevel = strings.ToLower(strings.TrimSpace(opts.LogLevel))
	if opts.LogLevel == "" {
		opts.LogLevel = def.LogLevel
	}

	if err := validate(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Load reads the config file and returns the validated options. The
// file is looked up at path, then $VIBECTX_CONFIG, then
// ~/.vibex/config.yaml; a missing file yields the defaults.
func Load(path string) (Options, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".vibex", defaultConfigName)
		}
	}

	opts := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return Options{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &opts); err != nil {
				return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	return New(opts)
}

func normalizeCandidates(candidates, fallback []string) []string {
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func fillDiscovery(d, def Discovery) Discovery {
	if len(d.IncludePatterns) == 0 {
		d.IncludePatterns = def.IncludePatterns
	}
	if d.MaxDepth == 0 {
		d.MaxDepth = def.MaxDepth
	}
	if d.MaxFiles == 0 {
		d.MaxFiles = def.MaxFiles
	}
	if d.MaxFileSize == 0 {
		d.MaxFileSize = def.MaxFileSize
	}
	return d
}

func fillLimits(l, def Limits) Limits {
	if l.MaxEntries == 0 {
		l.MaxEntries = def.MaxEntries
	}
	if l.MaxBytes == 0 {
		l.MaxBytes = def.MaxBytes
	}
	return l
}

func validate(opts Options) error {
	if opts.MaxUpLevels < 0 {
		return fmt.Errorf("config: max_up_levels must be >= 0, got %d", opts.MaxUpLevels)
	}
	if opts.StandardTTL < 0 || opts.FullTTL < 0 {
		return errors.New("config: cache TTLs must be positive")
	}
	if opts.WatchDebounce < 0 {
		return errors.New("config: watch_debounce must be positive")
	}
	if _, ok := logLevels[opts.LogLevel]; !ok {
		return fmt.Errorf("config: unknown log_level %q", opts.LogLevel)
	}
	if err := validateDiscovery("discovery", opts.Discovery); err != nil {
		return err
	}
	return validateDiscovery("full_discovery", opts.FullDiscovery)
}

func validateDiscovery(name string, d Discovery) error {
	if d.MaxDepth < 0 || d.MaxFiles < 0 || d.MaxFileSize < 0 {
		return fmt.Errorf("config: %s bounds must be >= 0", name)
	}
	for _, p := range d.IncludePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("config: %s: invalid include pattern %q", name, p)
		}
	}
	for _, p := range d.ExcludePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("config: %s: invalid exclude pattern %q", name, p)
		}
	}
	return nil
}
